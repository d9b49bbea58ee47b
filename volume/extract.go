package volume

import (
	"fmt"
	"math"

	"tidalflow/flow"
	"tidalflow/stats"
)

// TidalVolume is the corrected volume peak of the most recent breath.
type TidalVolume struct {
	OnsetIndex int
	OnsetTime  float64
	PeakIndex  int
	PeakTime   float64
	Volume     float64
}

func (tv TidalVolume) String() string {
	return fmt.Sprintf("<TidalVolume: %.3f L at %.3fs, onset %.3fs>", tv.Volume, tv.PeakTime, tv.OnsetTime)
}

// Correct subtracts the baseline from the raw volume sample by sample.
func Correct(raw, baseline []float64) []float64 {
	out := make([]float64, len(raw))
	for i := range raw {
		out[i] = raw[i] - baseline[i]
	}
	return out
}

// LastBreath reads the tidal volume off a corrected volume trace: the
// maximum at or after the onset of the last breath, relative to reference.
// reference is zero for a baseline-corrected trace and the onset volume for
// a raw one.
func LastBreath(times, vol []float64, onset int, reference float64) TidalVolume {
	peak := onset
	for i := onset + 1; i < len(vol); i++ {
		if vol[i] > vol[peak] {
			peak = i
		}
	}
	return TidalVolume{
		OnsetIndex: onset,
		OnsetTime:  times[onset],
		PeakIndex:  peak,
		PeakTime:   times[peak],
		Volume:     vol[peak] - reference,
	}
}

// Metrics are breath-level figures derived alongside the tidal volume.
type Metrics struct {
	// Rate is in breaths per minute; zero with fewer than two onsets.
	Rate float64
	// RateCV is the coefficient of variation of the onset intervals.
	RateCV float64
	// MinuteVentilation is tidal volume times rate, L/min.
	MinuteVentilation float64
	// PeakFlow is the largest absolute flow since the last onset, L/s.
	PeakFlow float64
}

// Measure derives Metrics from the breaths of a window, the processed flow
// and the latest tidal volume.
func Measure(breaths []flow.Breath, flowSignal []float64, tidal float64) Metrics {
	var m Metrics
	if len(breaths) == 0 {
		return m
	}

	intervals := stats.NewWelford()
	for i := 1; i < len(breaths); i++ {
		intervals.Update(breaths[i].OnsetTime - breaths[i-1].OnsetTime)
	}
	if intervals.Count() > 0 && intervals.GetMean() > 0 {
		m.Rate = 60 / intervals.GetMean()
		m.RateCV = intervals.GetCV()
		m.MinuteVentilation = tidal * m.Rate
	}

	for _, v := range flowSignal[breaths[len(breaths)-1].OnsetIndex:] {
		m.PeakFlow = math.Max(m.PeakFlow, math.Abs(v))
	}
	return m
}
