package core

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"tidalflow/flow"
)

const referenceRate = 75.0

// referenceSamples is f[k] = sin(k/60) + 0.3 sin(k/6000) sampled at 75 Hz.
func referenceSamples(n int) []flow.Sample {
	samples := make([]flow.Sample, n)
	for k := range samples {
		x := float64(k)
		samples[k] = flow.Sample{
			Time:  x / referenceRate,
			Value: math.Sin(x/60) + 0.3*math.Sin(x/6000),
		}
	}
	return samples
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, config Config) *Engine {
	t.Helper()
	engine, err := New(config, WithLogger(quietLogger()))
	require.NoError(t, err)
	return engine
}

type sliceReader struct {
	samples []flow.Sample
}

func (r *sliceReader) Read(dst []flow.Sample) (int, error) {
	if len(r.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(dst, r.samples)
	r.samples = r.samples[n:]
	return n, nil
}
