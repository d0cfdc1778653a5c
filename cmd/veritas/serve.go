package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/veritas/internal/audit"
	"github.com/fentz26/veritas/internal/controlplane"
	"github.com/fentz26/veritas/internal/simulator"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	outputDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Veritas API server",
	Long:  `Starts the HTTP API exposing /simulate, /provenance, /output/<file> and /health.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&outputDir, "output", "", "Directory for generated documents (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting Veritas server...")

	addr := cfg.Listen
	if listenAddr != "" {
		addr = listenAddr
	}
	dir := cfg.OutputDir
	if outputDir != "" {
		dir = outputDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Initialize components
	sim := simulator.New(cfg.SimulatorSettings())
	assembler := cfg.NewAssembler()
	recorder := audit.NewRecorder(nil)

	service := controlplane.NewService(sim, assembler, recorder, dir)
	service.SetDefaults(cfg.Simulator.Days, cfg.Simulator.Seed)
	server := controlplane.NewServer(service, addr)
	log.Printf("Writing documents to %s", dir)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
