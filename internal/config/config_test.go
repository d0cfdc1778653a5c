package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", cfg.Listen)
	assert.Equal(t, 4.5, cfg.Simulator.BlockLengthM)
	assert.Equal(t, 8, cfg.Simulator.CrewSize)
	assert.Equal(t, 10, cfg.Simulator.Days)
	assert.Equal(t, int64(42), cfg.Simulator.Seed)
	assert.True(t, cfg.Document.Resize)
	assert.Equal(t, 800, cfg.Document.MaxPhotoWidth)
	assert.Equal(t, 60, cfg.Document.JPEGQuality)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: 0.0.0.0:8080
output_dir: /tmp/sow
simulator:
  crew_size: 12
document:
  resize: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Listen)
	assert.Equal(t, "/tmp/sow", cfg.OutputDir)
	assert.Equal(t, 12, cfg.Simulator.CrewSize)
	// Unset keys keep their defaults.
	assert.Equal(t, 4.5, cfg.Simulator.BlockLengthM)
	assert.False(t, cfg.Document.Resize)
	assert.Equal(t, 800, cfg.Document.MaxPhotoWidth)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("simulator: [unclosed"), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("simulator:\n  crew_size: 0\n"), 0o600))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "crew_size")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Simulator.Seed = 7
	cfg.Document.JPEGQuality = 75

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.Error(t, Save(path, nil))

	cfg := DefaultConfig()
	cfg.Document.JPEGQuality = 101
	assert.Error(t, Save(path, cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"listen", func(c *Config) { c.Listen = "" }},
		{"output dir", func(c *Config) { c.OutputDir = "" }},
		{"block length", func(c *Config) { c.Simulator.BlockLengthM = 0 }},
		{"days", func(c *Config) { c.Simulator.Days = 0 }},
		{"days above max", func(c *Config) { c.Simulator.Days = 3651 }},
		{"photo width", func(c *Config) { c.Document.MaxPhotoWidth = 0 }},
		{"photo mm", func(c *Config) { c.Document.PhotoWidthMM = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestSimulatorSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulator.CrewSize = 3

	s := cfg.SimulatorSettings()
	assert.Equal(t, 4.5, s.BlockLengthM)
	assert.Equal(t, 3, s.CrewSize)
	assert.NotNil(t, cfg.NewAssembler())
}
