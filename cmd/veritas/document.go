package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fentz26/veritas/internal/audit"
	"github.com/fentz26/veritas/internal/controlplane"
	"github.com/fentz26/veritas/internal/models"
	"github.com/fentz26/veritas/internal/provenance"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Render shift logs into a Statement of Work PDF",
	Long: `Renders shift logs into a Statement of Work Accomplished PDF and prints its SHA-256.

The logs file holds a JSON array of shift logs, or an object with that array
under "shift_logs" or "logs" (the output of the simulate endpoint). Use - for stdin.`,
	RunE: runDocument,
}

var (
	docLogs     string
	docProject  string
	docOut      string
	docNoResize bool
	docDate     string
	docRemote   bool
)

func init() {
	documentCmd.Flags().StringVar(&docLogs, "logs", "", "Shift logs JSON file (required, - for stdin)")
	documentCmd.Flags().StringVar(&docProject, "project", "", "Project metadata JSON file")
	documentCmd.Flags().StringVar(&docOut, "out", "", "Output PDF path (default <output_dir>/provenance.pdf)")
	documentCmd.Flags().BoolVar(&docNoResize, "no-resize", false, "Embed photos without downscaling")
	documentCmd.Flags().StringVar(&docDate, "date", "", "Pin the document date (RFC 3339) for reproducible output")
	documentCmd.Flags().BoolVar(&docRemote, "remote", false, "Render on the API server")
	documentCmd.MarkFlagRequired("logs")
}

func runDocument(cmd *cobra.Command, args []string) error {
	var raw json.RawMessage
	if err := readJSONInput(docLogs, &raw); err != nil {
		return err
	}
	var logs []models.ShiftLog
	if err := unwrapList(raw, &logs, "shift_logs", "logs"); err != nil {
		return fmt.Errorf("parse shift logs: %w", err)
	}

	var project *models.ProjectMetadata
	if docProject != "" {
		project = &models.ProjectMetadata{}
		if err := readJSONInput(docProject, project); err != nil {
			return err
		}
	}

	out := docOut
	if out == "" {
		out = filepath.Join(cfg.OutputDir, controlplane.DefaultOutputName)
	}

	if docRemote {
		var resp controlplane.ProvenanceResponse
		body := controlplane.ProvenanceRequest{
			ShiftLogs:  logs,
			OutputName: filepath.Base(out),
			Project:    project,
		}
		if err := apiPost("/provenance", body, &resp); err != nil {
			return err
		}
		printArtifact(resp.PDFPath, resp.SHA256)
		return nil
	}

	assembler := cfg.NewAssembler()
	if docNoResize || docDate != "" {
		opts := &provenance.Options{
			MaxPhotoWidth: cfg.Document.MaxPhotoWidth,
			PhotoWidthMM:  cfg.Document.PhotoWidthMM,
		}
		if docDate != "" {
			created, err := time.Parse(time.RFC3339, docDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			opts.CreationDate = created
		}
		var downscaler provenance.Downscaler
		if cfg.Document.Resize && !docNoResize {
			downscaler = &provenance.ImageDownscaler{JPEGQuality: cfg.Document.JPEGQuality}
		}
		assembler = provenance.NewAssembler(downscaler, opts)
	}

	path, err := assembler.Assemble(logs, out, project)
	if err != nil {
		return err
	}
	digest, err := audit.HashFile(path)
	if err != nil {
		return err
	}

	printArtifact(path, digest)
	return nil
}

var hashCmd = &cobra.Command{
	Use:   "hash [file]",
	Short: "Print the SHA-256 fingerprint of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		digest, err := audit.HashFile(args[0])
		if err != nil {
			return err
		}
		fmt.Println(digest)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := CheckHealth()
		if err != nil {
			return err
		}
		fmt.Println(field("Status", "ok"))
		fmt.Println(field("Version", health.Version))
		fmt.Println(field("Time", health.Time))
		return nil
	},
}

func printArtifact(path, digest string) {
	fmt.Println(heading("Statement of Work Accomplished"))
	fmt.Println(field("Artifact", path))
	fmt.Println(field("SHA-256", hashStyle.Render(digest)))
}
