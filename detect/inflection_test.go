package detect

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidalflow/flow"
)

func sampledSine(n int, fs, period float64) ([]float64, []float64) {
	times := make([]float64, n)
	x := make([]float64, n)
	for k := range x {
		times[k] = float64(k) / fs
		x[k] = math.Sin(2 * math.Pi * times[k] / period)
	}
	return times, x
}

func TestFitSpline_Interpolates(t *testing.T) {
	times, x := sampledSine(50, 10, 2)
	s, err := FitSpline(times, x, 0)
	require.NoError(t, err)
	for i := range times {
		assert.InDelta(t, x[i], s.At(times[i]), 1e-9)
	}
}

func TestFitSpline_SecondDerivative(t *testing.T) {
	times, x := sampledSine(400, 100, 2*math.Pi)
	s, err := FitSpline(times, x, 0)
	require.NoError(t, err)
	// d2/dt2 sin(t) = -sin(t)
	assert.InDelta(t, -1, s.SecondDerivative(math.Pi/2, 0.05), 0.01)
	assert.InDelta(t, 0, s.SecondDerivative(math.Pi, 0.05), 0.01)
}

func TestFitSpline_Smoothing(t *testing.T) {
	times, x := sampledSine(200, 50, 2)
	noisy := make([]float64, len(x))
	for i := range x {
		noisy[i] = x[i] + 0.2*math.Pow(-1, float64(i))
	}

	s, err := FitSpline(times, noisy, 5)
	require.NoError(t, err)
	var rough, smooth float64
	for i := 10; i < len(x)-10; i++ {
		rough += math.Abs(noisy[i] - x[i])
		smooth += math.Abs(s.At(times[i]) - x[i])
	}
	assert.Less(t, smooth, rough/4)
}

func TestFitSpline_Errors(t *testing.T) {
	_, err := FitSpline([]float64{0, 1}, []float64{0, 1}, 0)
	assert.True(t, errors.Is(err, flow.ErrNumericFitFailure))

	_, err = FitSpline([]float64{0, 1, 1}, []float64{0, 1, 2}, 0)
	assert.True(t, errors.Is(err, flow.ErrNumericFitFailure))

	_, err = FitSpline([]float64{0, 1, 2}, []float64{0, 1}, 0)
	assert.True(t, errors.Is(err, flow.ErrNumericFitFailure))

	_, err = FitSpline([]float64{0, 1, 2}, []float64{0, 1, 2}, -1)
	assert.True(t, errors.Is(err, flow.ErrNumericFitFailure))
}

func TestOnsets_WithinSearchWindow(t *testing.T) {
	fs := 50.0
	times, x := sampledSine(1000, fs, 4)
	peaks := FindPeaks(x, DefaultPeakOptions(fs))
	require.GreaterOrEqual(t, peaks.Len(), 3)
	valleys := Valleys(x, peaks.Indices)

	s, err := FitSpline(times, x, 0)
	require.NoError(t, err)

	opts := OnsetOptions{Window: [2]float64{0.5, 0.9}, Step: 15 / fs}
	breaths := Onsets(times, s, peaks.Indices, valleys, opts)
	require.Len(t, breaths, peaks.Len()-1)

	for i, b := range breaths {
		span := float64(peaks.Indices[i+1] - 1 - valleys[i])
		assert.GreaterOrEqual(t, b.OnsetIndex, valleys[i]+int(0.5*span))
		assert.Less(t, b.OnsetIndex, valleys[i]+int(0.9*span))
		assert.Equal(t, peaks.Indices[i+1], b.PeakIndex)
		assert.Equal(t, times[b.OnsetIndex], b.OnsetTime)
		if i > 0 {
			assert.Greater(t, b.OnsetTime, breaths[i-1].OnsetTime)
		}
	}
}

func TestOnsets_EmptyRange(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	s, err := FitSpline(times, []float64{0, 1, 0, 1, 0}, 0)
	require.NoError(t, err)

	// span 0 leaves an empty search range
	breaths := Onsets(times, s, []int{1, 3}, []int{2, 4}, OnsetOptions{Window: [2]float64{0.5, 0.9}, Step: 0.1})
	require.Len(t, breaths, 1)
	assert.Equal(t, 2, breaths[0].OnsetIndex)

	assert.Empty(t, Onsets(times, s, []int{1}, []int{2}, OnsetOptions{}))
}
