package detect

import (
	"math"

	"tidalflow/flow"
)

// OnsetOptions controls the inflection search. Window is the fraction of the
// valley-to-next-peak span that is searched, Step the finite difference
// step in seconds.
type OnsetOptions struct {
	Window [2]float64
	Step   float64
}

// Onsets returns one breath per inter-peak interval. The onset is the sample
// with the largest second derivative of curve inside the search window of
// the span running from the interval's valley to the sample before the next
// peak. An empty search window puts the onset at its start.
func Onsets(times []float64, curve *Spline, peaks, valleys []int, opts OnsetOptions) []flow.Breath {
	if len(peaks) < 2 {
		return nil
	}
	breaths := make([]flow.Breath, 0, len(peaks)-1)
	for i := 0; i+1 < len(peaks); i++ {
		valley := valleys[i]
		span := float64(peaks[i+1] - 1 - valley)
		lo := valley + int(opts.Window[0]*span)
		hi := valley + int(opts.Window[1]*span)

		onset := lo
		best := math.Inf(-1)
		for k := lo; k < hi; k++ {
			d2 := curve.SecondDerivative(times[k], opts.Step)
			if d2 > best {
				best = d2
				onset = k
			}
		}

		breaths = append(breaths, flow.Breath{
			OnsetIndex:  onset,
			OnsetTime:   times[onset],
			PeakIndex:   peaks[i+1],
			ValleyIndex: valley,
		})
	}
	return breaths
}

// SecondDerivatives evaluates the spline's second difference at every time,
// for plotting and diagnostics.
func SecondDerivatives(times []float64, curve *Spline, step float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = curve.SecondDerivative(t, step)
	}
	return out
}
