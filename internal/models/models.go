// Package models defines the core domain types for Veritas.
package models

// Weather represents the site conditions recorded for a shift.
type Weather string

const (
	WeatherClear  Weather = "clear"
	WeatherCloudy Weather = "cloudy"
	WeatherRain   Weather = "rain"
)

// Factor returns the productivity multiplier for the weather.
func (w Weather) Factor() float64 {
	switch w {
	case WeatherCloudy:
		return 0.9
	case WeatherRain:
		return 0.5
	default:
		return 1.0
	}
}

// Segment is a linear physical work area.
type Segment struct {
	ID      string  `json:"segment_id"`
	LengthM float64 `json:"length_m"`
	WidthM  float64 `json:"width_m"` // informational only
}

// ShiftLog is one day's recorded progress for one segment.
type ShiftLog struct {
	Date              string  `json:"date"` // YYYY-MM-DD
	SegmentID         string  `json:"segment_id"`
	ShiftOutputBlocks float64 `json:"shift_output_blocks"`
	CumulativeBlocks  float64 `json:"cumulative_blocks"`
	RemainingBlocks   float64 `json:"remaining_blocks"`
	CrewSize          int     `json:"crew_size"`
	Weather           Weather `json:"weather"`

	// Field-entry extras. The simulator never sets these.
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	PhotoBase64 string   `json:"photo_base64,omitempty"`
}

// HasGPS reports whether both coordinates are present.
func (l *ShiftLog) HasGPS() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// ProjectMetadata holds the optional document header fields.
type ProjectMetadata struct {
	ProjectID      string `json:"project_id,omitempty"`
	ProjectTitle   string `json:"project_title,omitempty"`
	ContractID     string `json:"contract_id,omitempty"`
	ContractorName string `json:"contractor_name,omitempty"`
	Owner          string `json:"owner,omitempty"`
	ProjectType    string `json:"project_type,omitempty"`
	Location       string `json:"location,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Artifact is a rendered document paired with its SHA-256 digest.
type Artifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// SimulationSummary describes the size of a simulation result.
type SimulationSummary struct {
	TotalDays int `json:"total_days"`
	TotalLogs int `json:"total_logs"`
}

// AuditEntry is a provenance decision record.
type AuditEntry struct {
	Action     string `json:"action"`
	InputsHash string `json:"inputs_hash"`
	Outcome    string `json:"outcome"`
	Artifact   string `json:"artifact,omitempty"`
	Details    string `json:"details,omitempty"`
	Timestamp  string `json:"timestamp"`
}
