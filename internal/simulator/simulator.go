package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/fentz26/veritas/internal/models"
)

// productivityPerCrew is blocks per crew member per day before weather and variance.
const productivityPerCrew = 0.1

// weatherDeck gives clear, cloudy and rain relative weights of 3:1:1.
var weatherDeck = []models.Weather{
	models.WeatherClear,
	models.WeatherClear,
	models.WeatherClear,
	models.WeatherCloudy,
	models.WeatherRain,
}

// segmentState tracks progress of one segment during a run.
type segmentState struct {
	blocksTotal float64
	cumulative  float64
	completed   bool
}

// Simulator generates shift logs. It holds no random state of its own, so a
// single Simulator may serve concurrent calls.
type Simulator struct {
	config *Config
}

// New creates a new simulator.
func New(cfg *Config) *Simulator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Simulator{config: cfg}
}

// Config returns the simulator configuration.
func (s *Simulator) Config() *Config {
	return s.config
}

// Simulate runs the progress model for the given number of days.
//
// Each call owns a PCG stream seeded from seed. Per day the stream is drawn
// first for the weather and then once per still-active segment, in input
// order. Changing that order changes every result.
func (s *Simulator) Simulate(segments []models.Segment, days int, seed int64) ([]models.ShiftLog, error) {
	if err := s.validate(segments, days); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	start := s.config.startDate()
	crew := s.config.CrewSize
	baseProductivity := productivityPerCrew * float64(crew)

	states := make(map[string]*segmentState, len(segments))
	for _, seg := range segments {
		states[seg.ID] = &segmentState{blocksTotal: seg.LengthM / s.config.BlockLengthM}
	}

	var logs []models.ShiftLog
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day).Format(time.DateOnly)
		weather := weatherDeck[rng.IntN(len(weatherDeck))]
		factor := weather.Factor()

		for _, seg := range segments {
			state := states[seg.ID]
			if state.completed {
				continue
			}

			variance := 0.8 + 0.4*rng.Float64()
			potential := baseProductivity * factor * variance
			remaining := state.blocksTotal - state.cumulative

			var output float64
			if potential >= remaining {
				output = remaining
				state.cumulative = state.blocksTotal
				state.completed = true
			} else {
				output = potential
				state.cumulative += output
			}

			logs = append(logs, models.ShiftLog{
				Date:              date,
				SegmentID:         seg.ID,
				ShiftOutputBlocks: round4(output),
				CumulativeBlocks:  round4(state.cumulative),
				RemainingBlocks:   round4(state.blocksTotal - state.cumulative),
				CrewSize:          crew,
				Weather:           weather,
			})
		}
	}

	return logs, nil
}

func (s *Simulator) validate(segments []models.Segment, days int) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: no segments provided", ErrInvalidInput)
	}
	if days <= 0 || days > MaxDays {
		return fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidInput, MaxDays, days)
	}
	if !(s.config.BlockLengthM > 0) {
		return fmt.Errorf("%w: block_length_m must be positive, got %v", ErrInvalidInput, s.config.BlockLengthM)
	}
	if s.config.CrewSize <= 0 {
		return fmt.Errorf("%w: crew_size must be positive, got %d", ErrInvalidInput, s.config.CrewSize)
	}

	seen := make(map[string]bool, len(segments))
	for i, seg := range segments {
		if seg.ID == "" {
			return fmt.Errorf("%w: segment %d has no segment_id", ErrInvalidInput, i)
		}
		if seen[seg.ID] {
			return fmt.Errorf("%w: duplicate segment_id %q", ErrInvalidInput, seg.ID)
		}
		seen[seg.ID] = true

		if !(seg.LengthM > 0) || math.IsInf(seg.LengthM, 0) {
			return fmt.Errorf("%w: segment %q length_m must be positive, got %v", ErrInvalidInput, seg.ID, seg.LengthM)
		}
		if seg.WidthM < 0 {
			return fmt.Errorf("%w: segment %q width_m must not be negative, got %v", ErrInvalidInput, seg.ID, seg.WidthM)
		}
	}
	return nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
