package volume

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"tidalflow/flow"
)

type Interpolation int

const (
	Cubic Interpolation = iota
	Linear
)

func (i Interpolation) String() string {
	switch i {
	case Cubic:
		return "cubic"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// Baseline is the drift estimate under a raw volume trace. It passes through
// every anchor, is interpolated between the first and last anchor and is
// extended past either end by the line through the two nearest anchors.
type Baseline struct {
	xs, ys []float64
	inner  interp.Predictor
}

// FitBaseline builds a baseline through the anchors (xs[i], ys[i]). xs must
// be strictly increasing. Cubic falls back to linear below three anchors.
func FitBaseline(xs, ys []float64, kind Interpolation) (*Baseline, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d anchor times for %d volumes", flow.ErrNumericFitFailure, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: baseline needs 2 anchors, have %d", flow.ErrInsufficientBreathData, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: anchor times not increasing at %d", flow.ErrNumericFitFailure, i)
		}
	}

	b := &Baseline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	var fitter interp.FittablePredictor
	if kind == Cubic && len(xs) >= 3 {
		fitter = &interp.NaturalCubic{}
	} else {
		fitter = &interp.PiecewiseLinear{}
	}
	if err := fitter.Fit(b.xs, b.ys); err != nil {
		return nil, fmt.Errorf("%w: %v", flow.ErrNumericFitFailure, err)
	}
	b.inner = fitter
	return b, nil
}

func (b *Baseline) Eval(t float64) float64 {
	n := len(b.xs)
	switch {
	case t < b.xs[0]:
		return extrapolate(b.xs[0], b.ys[0], b.xs[1], b.ys[1], t)
	case t > b.xs[n-1]:
		return extrapolate(b.xs[n-2], b.ys[n-2], b.xs[n-1], b.ys[n-1], t)
	default:
		return b.inner.Predict(t)
	}
}

func (b *Baseline) EvalAll(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = b.Eval(t)
	}
	return out
}

// Anchors returns copies of the anchor times and volumes.
func (b *Baseline) Anchors() ([]float64, []float64) {
	return append([]float64(nil), b.xs...), append([]float64(nil), b.ys...)
}

func extrapolate(x0, y0, x1, y1, t float64) float64 {
	return y0 + (y1-y0)*(t-x0)/(x1-x0)
}
