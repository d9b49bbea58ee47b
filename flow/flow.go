package flow

import (
	"fmt"
	"math"
)

// Sample is one flow reading. Time is in seconds, Value in L/s.
type Sample struct {
	Time  float64
	Value float64
}

func (s Sample) Valid() bool {
	return !math.IsNaN(s.Time) && !math.IsInf(s.Time, 0) &&
		!math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

func (s Sample) String() string {
	return fmt.Sprintf("<Sample: t=%.3fs flow=%.4f L/s>", s.Time, s.Value)
}

// Breath marks one inter-peak interval of the flow signal. Indices refer to
// the window snapshot the breath was detected in.
type Breath struct {
	OnsetIndex  int
	OnsetTime   float64
	PeakIndex   int
	ValleyIndex int
}

func (b Breath) String() string {
	return fmt.Sprintf("<Breath: onset=%d (%.3fs) valley=%d peak=%d>",
		b.OnsetIndex, b.OnsetTime, b.ValleyIndex, b.PeakIndex)
}

// OnsetTimes returns the onset time of every breath, in order.
func OnsetTimes(breaths []Breath) []float64 {
	times := make([]float64, len(breaths))
	for i, b := range breaths {
		times[i] = b.OnsetTime
	}
	return times
}
