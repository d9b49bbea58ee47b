package core

import (
	"errors"
	"fmt"
	"math"

	"tidalflow/detect"
	"tidalflow/filter"
	"tidalflow/flow"
	"tidalflow/volume"
)

const minAnalysisSamples = 4

// minSamples is the shortest window that can be analysed at rate fs. A
// filter window that could never fit inside the sample window is reported
// and smoothing is skipped instead.
func (e *Engine) minSamples(fs float64) (int, int, error) {
	if !e.config.SmoothingEnabled {
		return minAnalysisSamples, 0, nil
	}
	length := filter.WindowLength(fs, e.config.CutoffHz, e.config.FilterOrder)
	if length > e.config.MaxSamples || length <= e.config.FilterOrder {
		return minAnalysisSamples, 0, fmt.Errorf("%w: length %d at %.2f Hz", flow.ErrInvalidFilterWindow, length, fs)
	}
	return max(minAnalysisSamples, length), length, nil
}

// analyse runs the full pipeline over one window snapshot.
func (e *Engine) analyse(times, values []float64) (*Result, error) {
	n := len(times)
	result := &Result{State: Idle}
	if n == 0 {
		return result, nil
	}
	result.Time = times[n-1]
	if n < 2 {
		return result, nil
	}

	fs := float64(n-1) / (times[n-1] - times[0])
	result.SampleRate = fs

	need, length, windowErr := e.minSamples(fs)
	if n < need {
		return result, nil
	}

	processed := values
	if length > 0 {
		smoothed, err := filter.SavitzkyGolay(values, length, e.config.FilterOrder)
		if err != nil {
			windowErr = err
		} else {
			processed = smoothed
		}
	}
	processed = filter.RemoveMean(processed)

	detection := processed
	if e.config.Polarity == PeaksNegative {
		detection = make([]float64, n)
		for i, v := range processed {
			detection[i] = -v
		}
	}

	raw := volume.Integrate(processed, fs)
	result.State = Accumulating
	result.Times = times
	result.Flow = processed
	result.RawVolume = raw
	result.Volume = raw

	peaks := detect.FindPeaks(detection, e.config.peakOptions(fs))
	result.Peaks = peaks
	if peaks.Len() < 2 {
		return result, errors.Join(windowErr,
			fmt.Errorf("%w: %d peaks", flow.ErrInsufficientBreathData, peaks.Len()))
	}
	result.Valleys = detect.Valleys(detection, peaks.Indices)

	curve, err := detect.FitSpline(times, detection, e.config.SplineSmoothing)
	if err != nil {
		return e.fitFailure(result, err)
	}
	breaths := detect.Onsets(times, curve, peaks.Indices, result.Valleys, e.config.onsetOptions(fs))
	result.State = Tracking
	result.Breaths = breaths

	last := breaths[len(breaths)-1].OnsetIndex
	var breathErr error
	if len(breaths) < 2 {
		breathErr = fmt.Errorf("%w: one onset, no baseline", flow.ErrInsufficientBreathData)
		tidal := volume.LastBreath(times, raw, last, raw[last])
		result.Tidal = &tidal
	} else {
		anchorTimes := flow.OnsetTimes(breaths)
		anchorVolumes := make([]float64, len(breaths))
		for i, b := range breaths {
			anchorVolumes[i] = raw[b.OnsetIndex]
		}
		baseline, err := volume.FitBaseline(anchorTimes, anchorVolumes, e.config.BaselineInterpolation)
		if err != nil {
			return e.fitFailure(result, err)
		}
		result.Baseline = baseline.EvalAll(times)
		result.Volume = volume.Correct(raw, result.Baseline)
		tidal := volume.LastBreath(times, result.Volume, last, 0)
		result.Tidal = &tidal
	}

	for i, v := range result.Volume {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return e.fitFailure(result, fmt.Errorf("%w: non-finite volume at %d", flow.ErrNumericFitFailure, i))
		}
	}

	result.Metrics = volume.Measure(breaths, processed, result.Tidal.Volume)
	return result, errors.Join(windowErr, breathErr)
}

// fitFailure replaces a failed tick with the previous good result marked
// stale, or with the raw volume when there is none.
func (e *Engine) fitFailure(result *Result, err error) (*Result, error) {
	if e.last != nil {
		return e.last.staleCopy(result.Time, err), err
	}
	result.State = Accumulating
	result.Volume = result.RawVolume
	result.Baseline = nil
	result.Valleys = nil
	result.Breaths = nil
	result.Tidal = nil
	return result, err
}
