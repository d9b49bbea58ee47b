// Package filter implements the zero-phase smoothing applied to the flow
// window before breath detection.
package filter

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"tidalflow/flow"
)

// DefaultOrder is the polynomial order used for flow smoothing. Higher
// orders keep peaks sharper.
const DefaultOrder = 2

// WindowLength returns the Savitzky-Golay window length, in samples, whose
// cutoff is approximately cutoff Hz at a sampling rate of fs Hz.
//
// From Schafer (2011): fc = (N+1)/(3.2M - 4.6) in normalised units, solved for
// the window length M and forced odd.
func WindowLength(fs, cutoff float64, order int) int {
	length := int(math.RoundToEven((float64(order+1)*fs/(2*cutoff) + 4.6) / 3.2))
	if length%2 == 0 {
		length += 1
	}
	return length
}

// SavitzkyGolay smooths x with a least-squares polynomial of the given order
// fitted over a sliding window of length samples. The first and last
// (length-1)/2 samples are taken from a polynomial fitted to the first and
// last length samples of x respectively.
func SavitzkyGolay(x []float64, length, order int) ([]float64, error) {
	n := len(x)
	if length < 1 || length%2 == 0 {
		return nil, fmt.Errorf("%w: length %d must be positive and odd",
			flow.ErrInvalidFilterWindow, length)
	}
	if order < 0 || order >= length {
		return nil, fmt.Errorf("%w: order %d must be less than length %d",
			flow.ErrInvalidFilterWindow, order, length)
	}
	if length > n {
		return nil, fmt.Errorf("%w: length %d exceeds %d available samples",
			flow.ErrInvalidFilterWindow, length, n)
	}

	fit, err := fitOperator(length, order)
	if err != nil {
		return nil, err
	}
	half := (length - 1) / 2
	kernel := mat.Row(nil, 0, fit)

	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		out[i] = floats.Dot(kernel, x[i-half:i+half+1])
	}

	var coeffs mat.VecDense
	coeffs.MulVec(fit, mat.NewVecDense(length, x[:length]))
	for i := 0; i < half; i++ {
		out[i] = polyval(&coeffs, float64(i-half))
	}
	start := n - length
	coeffs.MulVec(fit, mat.NewVecDense(length, x[start:]))
	for i := n - half; i < n; i++ {
		out[i] = polyval(&coeffs, float64(i-start-half))
	}
	return out, nil
}

// ZeroPhaseLowpass smooths x with an order-2 Savitzky-Golay filter whose
// window is chosen for the requested cutoff frequency.
func ZeroPhaseLowpass(x []float64, cutoff, fs float64) ([]float64, error) {
	if cutoff <= 0 || fs <= 0 {
		return nil, fmt.Errorf("%w: cutoff %.3f Hz at fs %.3f Hz",
			flow.ErrInvalidFilterWindow, cutoff, fs)
	}
	return SavitzkyGolay(x, WindowLength(fs, cutoff, DefaultOrder), DefaultOrder)
}

// RemoveMean returns a copy of x with its mean subtracted.
func RemoveMean(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean := floats.Sum(x) / float64(len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}

// fitOperator returns the (order+1) x length matrix P such that P*y holds the
// coefficients of the least-squares polynomial through y, with the abscissa
// centred on the middle sample of the window.
func fitOperator(length, order int) (*mat.Dense, error) {
	half := (length - 1) / 2
	design := mat.NewDense(length, order+1, nil)
	for i := 0; i < length; i++ {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			design.Set(i, j, v)
			v *= x
		}
	}

	ones := make([]float64, length)
	for i := range ones {
		ones[i] = 1
	}
	var fit mat.Dense
	if err := fit.Solve(design, mat.NewDiagDense(length, ones)); err != nil {
		return nil, fmt.Errorf("%w: savitzky-golay operator: %v", flow.ErrNumericFitFailure, err)
	}
	return &fit, nil
}

func polyval(coeffs mat.Vector, x float64) float64 {
	y := 0.0
	for j := coeffs.Len() - 1; j >= 0; j-- {
		y = y*x + coeffs.AtVec(j)
	}
	return y
}
