// Package simulator produces synthetic shift logs from segment definitions.
package simulator

import "time"

const (
	// DefaultBlockLengthM is the length of one block of work in meters.
	DefaultBlockLengthM = 4.5
	// DefaultCrewSize is the number of crew members per shift.
	DefaultCrewSize = 8
	// MaxDays bounds the simulation horizon of a single run.
	MaxDays = 3650
)

// Config defines the simulation parameters.
type Config struct {
	// BlockLengthM discretizes a segment's length into blocks.
	BlockLengthM float64
	// CrewSize is constant across a run.
	CrewSize int
	// StartDate is the date of day 0. Zero means today.
	StartDate time.Time
}

// DefaultConfig returns the default simulation configuration.
func DefaultConfig() *Config {
	return &Config{
		BlockLengthM: DefaultBlockLengthM,
		CrewSize:     DefaultCrewSize,
	}
}

// startDate returns the configured start date truncated to a calendar day.
func (c *Config) startDate() time.Time {
	d := c.StartDate
	if d.IsZero() {
		d = time.Now()
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
