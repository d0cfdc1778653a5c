package main

import (
	"fmt"
	"os"

	"github.com/fentz26/veritas/internal/config"
	"github.com/fentz26/veritas/internal/controlplane"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "veritas",
	Short: "Veritas - construction progress simulation and provenance documents",
	Long: `Veritas simulates construction progress as daily shift logs and renders
shift logs into Statement of Work Accomplished PDFs fingerprinted with SHA-256.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadFromHome()
		}
		if err != nil {
			return err
		}
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:5000", "API server address for --remote and health")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.veritas/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(controlplane.Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
