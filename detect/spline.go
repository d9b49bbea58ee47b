package detect

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"tidalflow/flow"
)

// Spline is a natural cubic spline through a (possibly pre-smoothed) flow
// window. Outside the fitted range it holds the end values.
type Spline struct {
	curve interp.NaturalCubic
}

// FitSpline fits a spline through values sampled at strictly increasing
// times. A smoothing of 0 interpolates the samples exactly; larger values
// first shrink the samples toward a curve with a smaller second difference
// (the penalty weight is per sample).
func FitSpline(times, values []float64, smoothing float64) (*Spline, error) {
	n := len(times)
	if n != len(values) {
		return nil, fmt.Errorf("%w: %d times for %d values", flow.ErrNumericFitFailure, n, len(values))
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: spline needs 3 samples, have %d", flow.ErrNumericFitFailure, n)
	}
	for i := 1; i < n; i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("%w: times not increasing at %d", flow.ErrNumericFitFailure, i)
		}
	}
	if smoothing < 0 || math.IsNaN(smoothing) {
		return nil, fmt.Errorf("%w: smoothing %v", flow.ErrNumericFitFailure, smoothing)
	}

	ys := values
	if smoothing > 0 {
		var err error
		ys, err = penalizedSmooth(values, smoothing)
		if err != nil {
			return nil, err
		}
	}

	s := &Spline{}
	if err := s.curve.Fit(times, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", flow.ErrNumericFitFailure, err)
	}
	return s, nil
}

func (s *Spline) At(t float64) float64 {
	return s.curve.Predict(t)
}

// SecondDerivative returns the central second difference of the spline at t
// with step h.
func (s *Spline) SecondDerivative(t, h float64) float64 {
	return (s.curve.Predict(t+h) - 2*s.curve.Predict(t) + s.curve.Predict(t-h)) / (h * h)
}

// penalizedSmooth solves (I + lambda*D'D) z = y, D being the second
// difference operator. The system is pentadiagonal and positive definite.
func penalizedSmooth(y []float64, lambda float64) ([]float64, error) {
	n := len(y)
	a := mat.NewSymBandDense(n, 2, nil)
	for i := 0; i < n; i++ {
		a.SetSymBand(i, i, 1)
	}
	d := [3]float64{1, -2, 1}
	for r := 0; r+2 < n; r++ {
		for p := 0; p < 3; p++ {
			for q := p; q < 3; q++ {
				i, j := r+p, r+q
				a.SetSymBand(i, j, a.At(i, j)+lambda*d[p]*d[q])
			}
		}
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return nil, fmt.Errorf("%w: smoothing system not positive definite", flow.ErrNumericFitFailure)
	}
	z := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(z, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", flow.ErrNumericFitFailure, err)
	}
	out := z.RawVector().Data
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite smoothed value at %d", flow.ErrNumericFitFailure, i)
		}
	}
	return out, nil
}
