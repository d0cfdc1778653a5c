package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fentz26/veritas/internal/controlplane"
	"github.com/fentz26/veritas/internal/models"
	"github.com/fentz26/veritas/internal/simulator"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate shift logs for a list of segments",
	Long: `Simulates daily progress for each segment and prints the resulting shift logs.

The segments file holds a JSON array of {"segment_id","length_m","width_m"}
objects, or an object with that array under "segments". Use - for stdin.`,
	RunE: runSimulate,
}

var (
	simSegments    string
	simDays        int
	simSeed        int64
	simCrew        int
	simBlockLength float64
	simStart       string
	simOut         string
	simRemote      bool
)

func init() {
	simulateCmd.Flags().StringVar(&simSegments, "segments", "", "Segments JSON file (required, - for stdin)")
	simulateCmd.Flags().IntVar(&simDays, "days", 0, "Days to simulate (default from config)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (default from config)")
	simulateCmd.Flags().IntVar(&simCrew, "crew", 0, "Crew size (default from config)")
	simulateCmd.Flags().Float64Var(&simBlockLength, "block-length", 0, "Block length in meters (default from config)")
	simulateCmd.Flags().StringVar(&simStart, "start", "", "Start date YYYY-MM-DD (default today)")
	simulateCmd.Flags().StringVar(&simOut, "out", "", "Write logs as JSON to this file instead of printing a table")
	simulateCmd.Flags().BoolVar(&simRemote, "remote", false, "Run the simulation on the API server")
	simulateCmd.MarkFlagRequired("segments")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var raw json.RawMessage
	if err := readJSONInput(simSegments, &raw); err != nil {
		return err
	}
	var segments []models.Segment
	if err := unwrapList(raw, &segments, "segments"); err != nil {
		return fmt.Errorf("parse segments: %w", err)
	}

	days := cfg.Simulator.Days
	if cmd.Flags().Changed("days") {
		days = simDays
	}
	seed := cfg.Simulator.Seed
	if cmd.Flags().Changed("seed") {
		seed = simSeed
	}

	var resp controlplane.SimulateResponse
	if simRemote {
		body := controlplane.SimulateRequest{Segments: segments, Days: &days, Seed: &seed}
		if err := apiPost("/simulate", body, &resp); err != nil {
			return err
		}
	} else {
		simCfg := cfg.SimulatorSettings()
		if cmd.Flags().Changed("crew") {
			simCfg.CrewSize = simCrew
		}
		if cmd.Flags().Changed("block-length") {
			simCfg.BlockLengthM = simBlockLength
		}
		if simStart != "" {
			start, err := time.Parse(time.DateOnly, simStart)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			simCfg.StartDate = start
		}

		logs, err := simulator.New(simCfg).Simulate(segments, days, seed)
		if err != nil {
			return err
		}
		resp.Logs = logs
		resp.Summary = &models.SimulationSummary{TotalDays: days, TotalLogs: len(logs)}
	}

	if simOut != "" {
		if err := writeJSONOutput(simOut, resp.Logs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d shift logs to %s\n", len(resp.Logs), simOut)
		return nil
	}

	printShiftLogs(resp.Logs)
	fmt.Println()
	fmt.Println(field("Days", strconv.Itoa(resp.Summary.TotalDays)))
	fmt.Println(field("Logs", strconv.Itoa(resp.Summary.TotalLogs)))
	return nil
}

func printShiftLogs(logs []models.ShiftLog) {
	fmt.Println(heading("Shift logs"))
	if len(logs) == 0 {
		fmt.Println("No shift logs")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSEGMENT\tOUTPUT\tCUMULATIVE\tREMAINING\tCREW\tWEATHER")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.4f\t%d\t%s\n",
			l.Date, l.SegmentID, l.ShiftOutputBlocks, l.CumulativeBlocks, l.RemainingBlocks, l.CrewSize, l.Weather)
	}
	w.Flush()
}
