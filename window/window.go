// Package window holds the bounded, time-ordered flow sample buffer the
// engine analyses on every tick.
package window

import (
	"fmt"

	"tidalflow/flow"
)

// SampleWindow is a ring buffer of samples with strictly increasing times.
// It never holds more than maxSamples samples nor spans more than span
// seconds; the oldest samples are evicted first.
type SampleWindow struct {
	buf        []flow.Sample
	head       int
	size       int
	span       float64
	maxSamples int
}

func NewSampleWindow(maxSamples int, span float64) *SampleWindow {
	return &SampleWindow{
		buf:        make([]flow.Sample, maxSamples),
		span:       span,
		maxSamples: maxSamples,
	}
}

// Push appends s, evicting old samples as needed. Samples that are not
// finite or do not advance past the newest sample are rejected.
func (w *SampleWindow) Push(s flow.Sample) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %v", flow.ErrInvalidSample, s)
	}
	if w.size > 0 {
		if last := w.at(w.size - 1); !(s.Time > last.Time) {
			return fmt.Errorf("%w: time %.6f does not follow %.6f", flow.ErrInvalidSample, s.Time, last.Time)
		}
	}

	if w.size == w.maxSamples {
		w.evict()
	}
	w.buf[(w.head+w.size)%w.maxSamples] = s
	w.size++

	for w.size > 1 && s.Time-w.at(0).Time > w.span {
		w.evict()
	}
	return nil
}

func (w *SampleWindow) evict() {
	w.head = (w.head + 1) % w.maxSamples
	w.size--
}

func (w *SampleWindow) at(i int) flow.Sample {
	return w.buf[(w.head+i)%w.maxSamples]
}

func (w *SampleWindow) Len() int {
	return w.size
}

// Last returns the newest sample, if any.
func (w *SampleWindow) Last() (flow.Sample, bool) {
	if w.size == 0 {
		return flow.Sample{}, false
	}
	return w.at(w.size - 1), true
}

// Snapshot copies the window out, oldest first, as parallel time and value
// slices.
func (w *SampleWindow) Snapshot() (times, values []float64) {
	times = make([]float64, w.size)
	values = make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		s := w.at(i)
		times[i], values[i] = s.Time, s.Value
	}
	return times, values
}

func (w *SampleWindow) Reset() {
	w.head, w.size = 0, 0
}
