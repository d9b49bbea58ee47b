package core

import (
	"errors"
	"fmt"
	"log/slog"

	"tidalflow/flow"
	"tidalflow/stats"
	"tidalflow/window"
)

// ErrorCounts tallies the recoverable errors seen since the engine was
// created or last reset.
type ErrorCounts struct {
	InvalidFilterWindow    uint64
	InsufficientBreathData uint64
	NumericFitFailure      uint64
	InvalidSample          uint64
}

func (ec *ErrorCounts) record(err error) {
	if errors.Is(err, flow.ErrInvalidFilterWindow) {
		ec.InvalidFilterWindow++
	}
	if errors.Is(err, flow.ErrInsufficientBreathData) {
		ec.InsufficientBreathData++
	}
	if errors.Is(err, flow.ErrNumericFitFailure) {
		ec.NumericFitFailure++
	}
	if errors.Is(err, flow.ErrInvalidSample) {
		ec.InvalidSample++
	}
}

// Engine segments breaths in a live flow stream. It owns the sample window
// and re-analyses the whole window on every Tick. An Engine is not safe for
// concurrent use; Pipeline serialises access to it.
type Engine struct {
	config Config
	window *window.SampleWindow
	stats  *stats.SamplingStatistics
	state  State
	last   *Result
	errors ErrorCounts
	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config: config,
		window: window.NewSampleWindow(config.MaxSamples, config.WindowSpan),
		stats:  stats.NewSamplingStatistics(),
		state:  Idle,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Append adds samples to the window in order. Invalid samples are skipped
// and reported together; the valid ones are kept.
func (e *Engine) Append(samples ...flow.Sample) error {
	var errs []error
	for _, s := range samples {
		if err := e.window.Push(s); err != nil {
			e.stats.Reject()
			e.errors.record(err)
			errs = append(errs, err)
			continue
		}
		e.stats.Append(s.Time, s.Value)
	}
	if len(errs) > 0 {
		e.logger.Warn("rejected samples", "count", len(errs), "first", errs[0])
	}
	return errors.Join(errs...)
}

// Tick analyses the current window and returns the result. It never fails;
// recoverable problems are reported in Result.Err.
func (e *Engine) Tick() *Result {
	times, values := e.window.Snapshot()
	result, err := e.analyse(times, values)
	if err != nil {
		result.Err = err
		e.errors.record(err)
		if errors.Is(err, flow.ErrInsufficientBreathData) {
			e.logger.Debug("tick", "state", result.State, "err", err)
		} else {
			e.logger.Warn("tick", "state", result.State, "err", err)
		}
	}

	if result.State != e.state {
		e.logger.Info("state change", "from", e.state, "to", result.State, "time", result.Time)
		e.state = result.State
	}
	if !result.Stale {
		e.last = result
	}
	return result
}

// Process appends samples and ticks once.
func (e *Engine) Process(samples ...flow.Sample) *Result {
	_ = e.Append(samples...)
	return e.Tick()
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Stats() *stats.SamplingStatistics {
	return e.stats
}

func (e *Engine) Errors() ErrorCounts {
	return e.errors
}

// Len is the number of samples in the window.
func (e *Engine) Len() int {
	return e.window.Len()
}

// Reset empties the window and forgets every previous result.
func (e *Engine) Reset() {
	e.window.Reset()
	e.stats.Reset()
	e.state = Idle
	e.last = nil
	e.errors = ErrorCounts{}
}

func (e *Engine) String() string {
	return fmt.Sprintf("<Engine: %s, %d samples>", e.state, e.window.Len())
}
