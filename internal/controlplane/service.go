// Package controlplane provides the HTTP API and service layer for Veritas.
package controlplane

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fentz26/veritas/internal/audit"
	"github.com/fentz26/veritas/internal/models"
	"github.com/fentz26/veritas/internal/provenance"
	"github.com/fentz26/veritas/internal/simulator"
)

const (
	DefaultDays       = 10
	DefaultSeed       = 42
	DefaultOutputName = "provenance.pdf"
)

// Service provides the control plane business logic.
type Service struct {
	simulator *simulator.Simulator
	assembler *provenance.Assembler
	recorder  *audit.Recorder
	outputDir string

	days int
	seed int64
}

// NewService creates a new control plane service writing documents to outputDir.
func NewService(sim *simulator.Simulator, asm *provenance.Assembler, rec *audit.Recorder, outputDir string) *Service {
	if rec == nil {
		rec = audit.NewRecorder(nil)
	}
	return &Service{
		simulator: sim,
		assembler: asm,
		recorder:  rec,
		outputDir: outputDir,
		days:      DefaultDays,
		seed:      DefaultSeed,
	}
}

// SetDefaults sets the horizon and seed used when a request omits them.
func (s *Service) SetDefaults(days int, seed int64) {
	s.days = days
	s.seed = seed
}

// OutputDir returns the directory documents are written to.
func (s *Service) OutputDir() string {
	return s.outputDir
}

// --- Simulation ---

// Simulate runs the progress simulator. Nil days or seed take the service defaults.
func (s *Service) Simulate(segments []models.Segment, days *int, seed *int64) ([]models.ShiftLog, *models.SimulationSummary, error) {
	if len(segments) == 0 {
		return nil, nil, ErrNoSegments
	}

	d, sd := s.days, s.seed
	if days != nil {
		d = *days
	}
	if seed != nil {
		sd = *seed
	}

	logs, err := s.simulator.Simulate(segments, d, sd)
	if err != nil {
		return nil, nil, err
	}
	if logs == nil {
		logs = []models.ShiftLog{}
	}

	return logs, &models.SimulationSummary{TotalDays: d, TotalLogs: len(logs)}, nil
}

// --- Provenance ---

// GenerateProvenance renders logs into the output directory and fingerprints
// the result.
func (s *Service) GenerateProvenance(logs []models.ShiftLog, outputName string, project *models.ProjectMetadata) (*models.Artifact, error) {
	if len(logs) == 0 {
		return nil, ErrNoShiftLogs
	}
	if outputName == "" {
		outputName = DefaultOutputName
	}
	if err := validateOutputName(outputName); err != nil {
		return nil, err
	}

	inputs := map[string]interface{}{
		"shift_logs":  logs,
		"output_name": outputName,
		"project":     project,
	}

	path, err := s.assembler.Assemble(logs, filepath.Join(s.outputDir, outputName), project)
	if err != nil {
		s.recorder.Record("provenance.create", inputs, "error", "", err.Error())
		return nil, err
	}

	digest, err := audit.HashFile(path)
	if err != nil {
		s.recorder.Record("provenance.create", inputs, "error", "", err.Error())
		return nil, err
	}

	s.recorder.Record("provenance.create", inputs, "success", digest, fmt.Sprintf("%d shift logs -> %s", len(logs), outputName))
	return &models.Artifact{Path: path, SHA256: digest}, nil
}

func validateOutputName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidOutputName, name)
	}
	return nil
}
