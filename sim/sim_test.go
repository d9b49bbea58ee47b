package sim

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidalflow/core"
	"tidalflow/flow"
	"tidalflow/volume"
)

func TestWaveform_BreathVolume(t *testing.T) {
	w := DefaultWaveform()
	g, err := NewGenerator(w, int(w.Period()*w.SampleRate))
	require.NoError(t, err)

	samples := g.Take(1000)
	require.Len(t, samples, 375)

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	raw := volume.Integrate(values, w.SampleRate)
	ti := int(w.InspiratoryTime() * w.SampleRate)
	assert.InDelta(t, w.TidalVolume, raw[ti], 0.01)
	// a full breath returns to where it started
	assert.InDelta(t, 0, raw[len(raw)-1], 0.01)
}

func TestGenerator_EOF(t *testing.T) {
	g, err := NewGenerator(DefaultWaveform(), 10)
	require.NoError(t, err)

	dst := make([]flow.Sample, 8)
	n, err := g.Read(dst)
	assert.Equal(t, 8, n)
	assert.NoError(t, err)

	n, err = g.Read(dst)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.InDelta(t, 9/75.0, dst[1].Time, 1e-12)
}

func TestGenerator_Seeded(t *testing.T) {
	w := DefaultWaveform()
	w.Noise = 0.02
	w.Seed = 42

	a, err := NewGenerator(w, 0)
	require.NoError(t, err)
	b, err := NewGenerator(w, 0)
	require.NoError(t, err)
	assert.Equal(t, a.Take(100), b.Take(100))

	a, err = NewGenerator(w, 0)
	require.NoError(t, err)
	w.Seed = 43
	c, err := NewGenerator(w, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.Take(100), c.Take(100))
}

func TestWaveform_Validate(t *testing.T) {
	w := DefaultWaveform()
	w.Rate = 0
	_, err := NewGenerator(w, 0)
	assert.True(t, errors.Is(err, flow.ErrInvalidConfig))
}

func TestWaveform_EngineRecoversTidalVolume(t *testing.T) {
	w := DefaultWaveform()
	w.Bias = 0.02
	// end one second into the fifth expiration
	n := int((4*w.Period() + w.InspiratoryTime() + 1) * w.SampleRate)
	g, err := NewGenerator(w, n)
	require.NoError(t, err)

	engine, err := core.New(core.DefaultConfig(), core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	result := engine.Process(g.Take(n)...)

	require.Equal(t, core.Tracking, result.State)
	require.NotNil(t, result.Tidal)
	assert.InDelta(t, w.TidalVolume, result.Tidal.Volume, 0.15*w.TidalVolume)
	assert.InDelta(t, w.Rate, result.Metrics.Rate, 0.5)
}
