package volume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidalflow/flow"
	"tidalflow/utils"
)

func TestIntegrate(t *testing.T) {
	raw := Integrate([]float64{1, 1, 2, -4}, 2)
	assert.InDeltaSlice(t, []float64{0.5, 1, 2, 0}, raw, 1e-12)

	assert.Empty(t, Integrate(nil, 75))
	zero := Integrate(make([]float64, 100), 75)
	for _, v := range zero {
		assert.Equal(t, 0.0, v)
	}
}

func TestFitBaseline_PassesThroughAnchors(t *testing.T) {
	xs := []float64{1, 2.5, 4, 6}
	ys := []float64{0.2, 0.5, 0.4, 1.1}

	for _, kind := range []Interpolation{Linear, Cubic} {
		b, err := FitBaseline(xs, ys, kind)
		require.NoError(t, err, kind.String())
		for i := range xs {
			assert.InDelta(t, ys[i], b.Eval(xs[i]), 1e-9, "%s anchor %d", kind, i)
		}
	}
}

func TestFitBaseline_Edges(t *testing.T) {
	b, err := FitBaseline([]float64{1, 2, 3}, []float64{1, 3, 4}, Cubic)
	require.NoError(t, err)

	// before the first anchor: line through (1,1) and (2,3)
	assert.InDelta(t, -1, b.Eval(0), 1e-12)
	// after the last anchor: line through (2,3) and (3,4)
	assert.InDelta(t, 5, b.Eval(4), 1e-12)

	vals := b.EvalAll([]float64{0, 1, 4})
	assert.InDeltaSlice(t, []float64{-1, 1, 5}, vals, 1e-12)
}

func TestFitBaseline_LinearBetweenAnchors(t *testing.T) {
	b, err := FitBaseline([]float64{0, 2}, []float64{0, 1}, Cubic)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, b.Eval(1), 1e-12)

	xs, ys := b.Anchors()
	assert.Equal(t, []float64{0, 2}, xs)
	assert.Equal(t, []float64{0, 1}, ys)
}

func TestFitBaseline_Errors(t *testing.T) {
	_, err := FitBaseline([]float64{1}, []float64{1}, Linear)
	assert.True(t, errors.Is(err, flow.ErrInsufficientBreathData))

	_, err = FitBaseline(nil, nil, Cubic)
	assert.True(t, errors.Is(err, flow.ErrInsufficientBreathData))

	_, err = FitBaseline([]float64{1, 1}, []float64{0, 1}, Linear)
	assert.True(t, errors.Is(err, flow.ErrNumericFitFailure))
}

func TestCorrectAndLastBreath(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5}
	raw := []float64{0, 1, 2, 3, 4, 5}
	base := []float64{0, 0.5, 1, 1.5, 2, 2.5}

	vol := Correct(raw, base)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2, 2.5}, vol, 1e-12)
	utils.AssertAllFinite(t, vol)

	tv := LastBreath(times, []float64{0, 0.1, 0, 0.3, 0.8, 0.2}, 2, 0)
	assert.Equal(t, 2, tv.OnsetIndex)
	assert.Equal(t, 4, tv.PeakIndex)
	assert.Equal(t, 4.0, tv.PeakTime)
	assert.InDelta(t, 0.8, tv.Volume, 1e-12)

	tv = LastBreath(times, []float64{0, 0.1, 0.5, 0.3, 0.8, 0.2}, 2, 0.5)
	assert.InDelta(t, 0.3, tv.Volume, 1e-12)

	// onset at the last sample
	tv = LastBreath(times, raw, 5, 0)
	assert.Equal(t, 5, tv.PeakIndex)
}

func TestMeasure(t *testing.T) {
	breaths := []flow.Breath{
		{OnsetIndex: 10, OnsetTime: 1},
		{OnsetIndex: 40, OnsetTime: 5},
		{OnsetIndex: 70, OnsetTime: 9},
	}
	signal := make([]float64, 100)
	signal[50] = 0.7
	signal[80] = -1.2

	m := Measure(breaths, signal, 0.5)
	assert.InDelta(t, 15, m.Rate, 1e-12)
	assert.InDelta(t, 0, m.RateCV, 1e-12)
	assert.InDelta(t, 7.5, m.MinuteVentilation, 1e-12)
	assert.InDelta(t, 1.2, m.PeakFlow, 1e-12)

	single := Measure(breaths[:1], signal, 0.5)
	assert.Equal(t, 0.0, single.Rate)
	assert.InDelta(t, 1.2, single.PeakFlow, 1e-12)

	assert.Equal(t, Metrics{}, Measure(nil, signal, 0.5))
}
