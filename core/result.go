package core

import (
	"fmt"

	"tidalflow/detect"
	"tidalflow/flow"
	"tidalflow/volume"
)

type State int

const (
	Idle State = iota
	Accumulating
	Tracking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the output of one tick. Slices are indexed like Times and
// belong to the result; the engine never touches them again.
type Result struct {
	State State
	// Time is the timestamp of the newest sample analysed.
	Time       float64
	SampleRate float64

	Times     []float64
	Flow      []float64
	RawVolume []float64
	// Volume is the baseline-corrected volume when a baseline could be
	// fitted and the raw volume otherwise.
	Volume   []float64
	Baseline []float64

	Peaks   *detect.Peaks
	Valleys []int
	Breaths []flow.Breath
	Tidal   *volume.TidalVolume
	Metrics volume.Metrics

	// Err is the recoverable error of this tick, if any.
	Err error
	// Stale marks a result carried over from an earlier tick because this
	// tick's fit failed.
	Stale bool
}

// LastOnset returns the newest breath onset time.
func (r *Result) LastOnset() (float64, bool) {
	if len(r.Breaths) == 0 {
		return 0, false
	}
	return r.Breaths[len(r.Breaths)-1].OnsetTime, true
}

func (r *Result) String() string {
	tidal := "-"
	if r.Tidal != nil {
		tidal = fmt.Sprintf("%.3fL", r.Tidal.Volume)
	}
	return fmt.Sprintf("<Result: %s t=%.3fs fs=%.1fHz breaths=%d tidal=%s stale=%t>",
		r.State, r.Time, r.SampleRate, len(r.Breaths), tidal, r.Stale)
}

func (r *Result) staleCopy(now float64, err error) *Result {
	stale := *r
	stale.Time = now
	stale.Err = err
	stale.Stale = true
	return &stale
}
