// Package source replays and records flow signals in EDF/EDF+ files.
package source

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/OpenPSG/edf"

	"tidalflow/flow"
)

// EDF reads one signal of an EDF file as a stream of flow samples. The
// sample rate of the signal is supplied by the caller.
type EDF struct {
	signal     *edf.SignalReader
	sampleRate float64
	start      float64
	k          int
	buf        []float64
}

func OpenEDF(r io.ReadSeeker, signalIndex int, sampleRate float64) (*EDF, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: sample rate %v", flow.ErrInvalidConfig, sampleRate)
	}
	reader, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("error opening edf: %w", err)
	}
	signal, err := reader.Signal(signalIndex)
	if err != nil {
		return nil, fmt.Errorf("error selecting edf signal %d: %w", signalIndex, err)
	}
	return &EDF{signal: signal, sampleRate: sampleRate}, nil
}

// SetStart offsets every sample time by start seconds.
func (e *EDF) SetStart(start float64) *EDF {
	e.start = start
	return e
}

func (e *EDF) Read(dst []flow.Sample) (int, error) {
	if cap(e.buf) < len(dst) {
		e.buf = make([]float64, len(dst))
	}
	values := e.buf[:len(dst)]
	n, err := e.signal.Read(values)
	for i := 0; i < n; i++ {
		dst[i] = flow.Sample{
			Time:  e.start + float64(e.k)/e.sampleRate,
			Value: values[i],
		}
		e.k++
	}
	return n, err
}

// RecorderConfig describes the single flow signal a Recorder writes.
type RecorderConfig struct {
	PatientID   string
	RecordingID string
	StartTime   time.Time
	// SampleRate must be a whole number of samples per second.
	SampleRate int
	// MaxFlow bounds the stored range to [-MaxFlow, MaxFlow] L/s.
	MaxFlow float64
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		PatientID:   "X",
		RecordingID: "tidalflow",
		StartTime:   time.Now(),
		SampleRate:  75,
		MaxFlow:     5,
	}
}

// Recorder writes flow samples to an EDF file in one-second data records.
// A trailing partial record is padded with zero flow on Close.
type Recorder struct {
	writer  *edf.Writer
	record  []float64
	pending int
}

func NewRecorder(w io.WriteSeeker, config RecorderConfig) (*Recorder, error) {
	if config.SampleRate <= 0 || !(config.MaxFlow > 0) {
		return nil, fmt.Errorf("%w: recorder needs a positive sample rate and flow range", flow.ErrInvalidConfig)
	}
	writer, err := edf.Create(w, edf.Header{
		Version:            edf.Version0,
		PatientID:          config.PatientID,
		RecordingID:        config.RecordingID,
		StartTime:          config.StartTime,
		DataRecordDuration: time.Second,
		SignalCount:        1,
		Signals: []edf.Signal{
			{
				Label:             "Flow",
				TransducerType:    "Differential pressure",
				PhysicalDimension: "L/s",
				PhysicalMin:       -config.MaxFlow,
				PhysicalMax:       config.MaxFlow,
				DigitalMin:        math.MinInt16,
				DigitalMax:        math.MaxInt16,
				SamplesPerRecord:  config.SampleRate,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating edf: %w", err)
	}
	return &Recorder{
		writer: writer,
		record: make([]float64, config.SampleRate),
	}, nil
}

func (r *Recorder) Write(samples ...flow.Sample) error {
	for _, s := range samples {
		r.record[r.pending] = s.Value
		r.pending++
		if r.pending == len(r.record) {
			if err := r.flushRecord(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) flushRecord() error {
	if err := r.writer.WriteRecord([][]float64{r.record}); err != nil {
		return fmt.Errorf("error writing edf record: %w", err)
	}
	r.pending = 0
	return nil
}

func (r *Recorder) Close() error {
	if r.pending > 0 {
		clear(r.record[r.pending:])
		if err := r.flushRecord(); err != nil {
			return err
		}
	}
	return r.writer.Close()
}
