// Package sim generates synthetic respiratory flow for exercising the
// engine without a sensor.
package sim

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"tidalflow/flow"
)

// Waveform describes a regular breathing pattern. Each breath is a positive
// half-sine inspiration followed by a negative half-sine expiration moving
// the same volume.
type Waveform struct {
	SampleRate  float64 // Hz
	Rate        float64 // breaths per minute
	TidalVolume float64 // L
	// IERatio is expiration time over inspiration time.
	IERatio float64
	// Bias is a constant flow offset, L/s, as left by an uncalibrated
	// sensor. It shows up as linear volume drift.
	Bias float64
	// Noise is the standard deviation of additive white noise, L/s.
	Noise float64
	Seed  uint64
}

func DefaultWaveform() Waveform {
	return Waveform{
		SampleRate:  75,
		Rate:        12,
		TidalVolume: 0.5,
		IERatio:     2,
	}
}

func (w Waveform) Validate() error {
	if !(w.SampleRate > 0) || !(w.Rate > 0) || !(w.IERatio > 0) {
		return fmt.Errorf("%w: sample rate, breath rate and I:E ratio must be positive", flow.ErrInvalidConfig)
	}
	if w.TidalVolume < 0 || w.Noise < 0 {
		return fmt.Errorf("%w: tidal volume and noise must not be negative", flow.ErrInvalidConfig)
	}
	return nil
}

// Period is the breath period in seconds.
func (w Waveform) Period() float64 {
	return 60 / w.Rate
}

// InspiratoryTime is the inspiration length in seconds.
func (w Waveform) InspiratoryTime() float64 {
	return w.Period() / (1 + w.IERatio)
}

// At returns the noiseless flow at time t.
func (w Waveform) At(t float64) float64 {
	period := w.Period()
	ti := w.InspiratoryTime()
	te := period - ti
	phase := math.Mod(t, period)
	if phase < 0 {
		phase += period
	}
	if phase < ti {
		return w.Bias + math.Pi*w.TidalVolume/(2*ti)*math.Sin(math.Pi*phase/ti)
	}
	return w.Bias - math.Pi*w.TidalVolume/(2*te)*math.Sin(math.Pi*(phase-ti)/te)
}

// Generator streams samples of a Waveform.
type Generator struct {
	waveform Waveform
	k        int
	limit    int
	noise    distuv.Normal
}

// NewGenerator returns a generator that stops with io.EOF after limit
// samples; a limit <= 0 never stops.
func NewGenerator(waveform Waveform, limit int) (*Generator, error) {
	if err := waveform.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		waveform: waveform,
		limit:    limit,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: waveform.Noise,
			Src:   rand.NewPCG(waveform.Seed, waveform.Seed^0x9e3779b97f4a7c15),
		},
	}, nil
}

func (g *Generator) Read(dst []flow.Sample) (int, error) {
	n := 0
	for n < len(dst) {
		if g.limit > 0 && g.k >= g.limit {
			return n, io.EOF
		}
		t := float64(g.k) / g.waveform.SampleRate
		v := g.waveform.At(t)
		if g.waveform.Noise > 0 {
			v += g.noise.Rand()
		}
		dst[n] = flow.Sample{Time: t, Value: v}
		g.k++
		n++
	}
	return n, nil
}

// Take reads the next n samples.
func (g *Generator) Take(n int) []flow.Sample {
	samples := make([]flow.Sample, n)
	got, _ := g.Read(samples)
	return samples[:got]
}
