package core

import (
	"fmt"
	"math"

	"tidalflow/detect"
	"tidalflow/flow"
	"tidalflow/volume"
)

// Polarity selects which flow direction produces the breath peaks.
type Polarity int

const (
	PeaksPositive Polarity = iota
	PeaksNegative
)

func (p Polarity) String() string {
	switch p {
	case PeaksPositive:
		return "positive"
	case PeaksNegative:
		return "negative"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// Config holds every tunable of the engine. Durations are in seconds and
// are converted to samples with the sampling rate measured on each tick.
type Config struct {
	SmoothingEnabled bool
	CutoffHz         float64
	FilterOrder      int

	MinPeakHeight     float64
	MinPeakDistance   float64
	MinPeakProminence float64
	MinPeakWidth      float64

	// InflectionWindow is the fraction of each valley-to-peak span searched
	// for the breath onset.
	InflectionWindow [2]float64
	SplineSmoothing  float64
	// DerivativeStep is the second derivative step, in samples.
	DerivativeStep float64

	BaselineInterpolation volume.Interpolation
	Polarity              Polarity

	WindowSpan float64
	MaxSamples int
}

func DefaultConfig() Config {
	return Config{
		SmoothingEnabled:      true,
		CutoffHz:              2.0,
		FilterOrder:           2,
		MinPeakHeight:         0.05,
		MinPeakDistance:       1.5,
		MinPeakProminence:     0.05,
		MinPeakWidth:          0.3,
		InflectionWindow:      [2]float64{0.5, 0.9},
		SplineSmoothing:       0,
		DerivativeStep:        15,
		BaselineInterpolation: volume.Cubic,
		Polarity:              PeaksPositive,
		WindowSpan:            30,
		MaxSamples:            4096,
	}
}

func (c Config) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", flow.ErrInvalidConfig, name, v)
		}
		return nil
	}
	nonNegative := func(name string, v float64) error {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must not be negative, got %v", flow.ErrInvalidConfig, name, v)
		}
		return nil
	}

	if c.SmoothingEnabled {
		if err := positive("CutoffHz", c.CutoffHz); err != nil {
			return err
		}
		if c.FilterOrder < 0 {
			return fmt.Errorf("%w: FilterOrder must not be negative, got %d", flow.ErrInvalidConfig, c.FilterOrder)
		}
	}
	for _, check := range []struct {
		name string
		v    float64
	}{
		{"MinPeakDistance", c.MinPeakDistance},
		{"MinPeakProminence", c.MinPeakProminence},
		{"MinPeakWidth", c.MinPeakWidth},
		{"SplineSmoothing", c.SplineSmoothing},
	} {
		if err := nonNegative(check.name, check.v); err != nil {
			return err
		}
	}
	if math.IsNaN(c.MinPeakHeight) {
		return fmt.Errorf("%w: MinPeakHeight is NaN", flow.ErrInvalidConfig)
	}
	if err := positive("DerivativeStep", c.DerivativeStep); err != nil {
		return err
	}
	if err := positive("WindowSpan", c.WindowSpan); err != nil {
		return err
	}

	f0, f1 := c.InflectionWindow[0], c.InflectionWindow[1]
	if !(f0 >= 0 && f0 < f1 && f1 <= 1) {
		return fmt.Errorf("%w: InflectionWindow %v is not an increasing fraction pair", flow.ErrInvalidConfig, c.InflectionWindow)
	}
	if c.BaselineInterpolation != volume.Cubic && c.BaselineInterpolation != volume.Linear {
		return fmt.Errorf("%w: unknown baseline interpolation %v", flow.ErrInvalidConfig, c.BaselineInterpolation)
	}
	if c.Polarity != PeaksPositive && c.Polarity != PeaksNegative {
		return fmt.Errorf("%w: unknown polarity %v", flow.ErrInvalidConfig, c.Polarity)
	}
	if c.MaxSamples < 4 {
		return fmt.Errorf("%w: MaxSamples must be at least 4, got %d", flow.ErrInvalidConfig, c.MaxSamples)
	}
	return nil
}

func (c Config) peakOptions(fs float64) detect.PeakOptions {
	return detect.PeakOptions{
		Height:     c.MinPeakHeight,
		Distance:   c.MinPeakDistance * fs,
		Prominence: c.MinPeakProminence,
		Width:      c.MinPeakWidth * fs,
	}
}

func (c Config) onsetOptions(fs float64) detect.OnsetOptions {
	return detect.OnsetOptions{
		Window: c.InflectionWindow,
		Step:   c.DerivativeStep / fs,
	}
}
