package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Config tunes the tracker.
type Config struct {
	// Window is the number of trailing samples averaged by Mean.
	Window int `json:"window" yaml:"window"`

	// Horizon is the trailing time span counted by CountWithin.
	Horizon time.Duration `json:"horizon" yaml:"horizon"`

	// FullConfidence is the sample count at which confidence reaches 1.
	FullConfidence int `json:"full_confidence" yaml:"full_confidence"`
}

// DefaultConfig returns the standard tracker settings.
func DefaultConfig() Config {
	return Config{
		Window:         5,
		Horizon:        10 * time.Second,
		FullConfidence: 5,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidConfig)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive", ErrInvalidConfig)
	}
	if c.FullConfidence <= 0 {
		return fmt.Errorf("%w: full_confidence must be positive", ErrInvalidConfig)
	}
	return nil
}

// Sample is one observation of a signal.
type Sample struct {
	Value float64
	At    time.Time
}

// Summary is the condensed view of one signal sent with each snapshot.
type Summary struct {
	Signal     Signal  `json:"signal"`
	Mean       float64 `json:"mean"`
	Recent     int     `json:"recent"`
	Samples    int     `json:"samples"`
	Confidence float64 `json:"confidence"`
}

// Tracker accumulates per-signal samples for a session.
// It is owned by the tick goroutine and is not safe for concurrent use.
type Tracker struct {
	cfg     Config
	samples map[Signal][]Sample
	counts  map[Signal]int
}

// NewTracker creates a tracker. Invalid settings fall back to the defaults.
func NewTracker(cfg Config) *Tracker {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Tracker{
		cfg:     cfg,
		samples: make(map[Signal][]Sample),
		counts:  make(map[Signal]int),
	}
}

// Config returns the active settings.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Record appends a sample. Samples are kept until Reset.
func (t *Tracker) Record(sig Signal, value float64, at time.Time) error {
	if !sig.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownSignal, sig)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	t.samples[sig] = append(t.samples[sig], Sample{Value: value, At: at})
	t.counts[sig]++
	return nil
}

// Mean returns the mean of the last Window samples. The boolean is false
// when the signal has no samples.
func (t *Tracker) Mean(sig Signal) (float64, bool) {
	s := t.samples[sig]
	if len(s) == 0 {
		return 0, false
	}
	if len(s) > t.cfg.Window {
		s = s[len(s)-t.cfg.Window:]
	}
	var sum float64
	for _, v := range s {
		sum += v.Value
	}
	return sum / float64(len(s)), true
}

// CountWithin returns how many samples fall inside the trailing horizon
// ending at now.
func (t *Tracker) CountWithin(sig Signal, now time.Time) int {
	cutoff := now.Add(-t.cfg.Horizon)
	n := 0
	s := t.samples[sig]
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].At.Before(cutoff) {
			break
		}
		if !s[i].At.After(now) {
			n++
		}
	}
	return n
}

// Count returns the total number of samples recorded for a signal.
func (t *Tracker) Count(sig Signal) int {
	return t.counts[sig]
}

// Confidence returns min(n/FullConfidence, 1).
func (t *Tracker) Confidence(sig Signal) float64 {
	return math.Min(float64(t.counts[sig])/float64(t.cfg.FullConfidence), 1)
}

// Summary returns one entry per signal with samples, ordered by signal name.
func (t *Tracker) Summary(now time.Time) []Summary {
	out := make([]Summary, 0, len(t.samples))
	for sig := range t.samples {
		mean, ok := t.Mean(sig)
		if !ok {
			continue
		}
		out = append(out, Summary{
			Signal:     sig,
			Mean:       mean,
			Recent:     t.CountWithin(sig, now),
			Samples:    t.counts[sig],
			Confidence: t.Confidence(sig),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signal < out[j].Signal })
	return out
}

// Reset discards every sample.
func (t *Tracker) Reset() {
	t.samples = make(map[Signal][]Sample)
	t.counts = make(map[Signal]int)
}
