// Package config loads Veritas settings from ~/.veritas/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fentz26/veritas/internal/provenance"
	"github.com/fentz26/veritas/internal/simulator"
)

const (
	// Dir is the per-user state directory under the home directory.
	Dir = ".veritas"
	// FileName is the config file inside Dir.
	FileName = "config.yaml"
)

// Config holds Veritas configuration.
type Config struct {
	// Listen is the address the API server binds to.
	Listen string `yaml:"listen"`
	// OutputDir receives generated documents.
	OutputDir string `yaml:"output_dir"`
	// Simulator holds simulation defaults.
	Simulator SimulatorConfig `yaml:"simulator"`
	// Document holds rendering settings.
	Document DocumentConfig `yaml:"document"`
}

// SimulatorConfig holds simulation defaults.
type SimulatorConfig struct {
	BlockLengthM float64 `yaml:"block_length_m"`
	CrewSize     int     `yaml:"crew_size"`
	Days         int     `yaml:"days"`
	Seed         int64   `yaml:"seed"`
}

// DocumentConfig holds rendering settings.
type DocumentConfig struct {
	// Resize enables photo downscaling.
	Resize        bool    `yaml:"resize"`
	MaxPhotoWidth int     `yaml:"max_photo_width"`
	JPEGQuality   int     `yaml:"jpeg_quality"`
	PhotoWidthMM  float64 `yaml:"photo_width_mm"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	outputDir := "output"
	if home, err := os.UserHomeDir(); err == nil {
		outputDir = filepath.Join(home, Dir, "output")
	}
	return &Config{
		Listen:    "127.0.0.1:5000",
		OutputDir: outputDir,
		Simulator: SimulatorConfig{
			BlockLengthM: simulator.DefaultBlockLengthM,
			CrewSize:     simulator.DefaultCrewSize,
			Days:         10,
			Seed:         42,
		},
		Document: DocumentConfig{
			Resize:        true,
			MaxPhotoWidth: provenance.DefaultMaxPhotoWidth,
			JPEGQuality:   provenance.DefaultJPEGQuality,
			PhotoWidthMM:  provenance.DefaultPhotoWidthMM,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromHome loads configuration from ~/.veritas/config.yaml.
func LoadFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}
	return Load(filepath.Join(home, Dir, FileName))
}

// Save writes configuration to a YAML file, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Simulator.BlockLengthM <= 0 {
		return fmt.Errorf("simulator.block_length_m must be positive")
	}
	if c.Simulator.CrewSize < 1 {
		return fmt.Errorf("simulator.crew_size must be at least 1")
	}
	if c.Simulator.Days < 1 || c.Simulator.Days > simulator.MaxDays {
		return fmt.Errorf("simulator.days must be between 1 and %d", simulator.MaxDays)
	}
	if c.Document.MaxPhotoWidth < 1 {
		return fmt.Errorf("document.max_photo_width must be at least 1")
	}
	if c.Document.JPEGQuality < 1 || c.Document.JPEGQuality > 100 {
		return fmt.Errorf("document.jpeg_quality must be between 1 and 100")
	}
	if c.Document.PhotoWidthMM <= 0 {
		return fmt.Errorf("document.photo_width_mm must be positive")
	}
	return nil
}

// SimulatorSettings returns the simulator configuration.
func (c *Config) SimulatorSettings() *simulator.Config {
	return &simulator.Config{
		BlockLengthM: c.Simulator.BlockLengthM,
		CrewSize:     c.Simulator.CrewSize,
	}
}

// NewAssembler builds a document assembler from the rendering settings.
// With resize disabled the assembler embeds photos unmodified.
func (c *Config) NewAssembler() *provenance.Assembler {
	var downscaler provenance.Downscaler
	if c.Document.Resize {
		downscaler = &provenance.ImageDownscaler{JPEGQuality: c.Document.JPEGQuality}
	}
	return provenance.NewAssembler(downscaler, &provenance.Options{
		MaxPhotoWidth: c.Document.MaxPhotoWidth,
		PhotoWidthMM:  c.Document.PhotoWidthMM,
	})
}
