package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"tidalflow/storage"
)

// BreathRecord is the stored summary of one breath.
type BreathRecord struct {
	OnsetTime         float64 `msgpack:"onset"`
	PeakTime          float64 `msgpack:"peak"`
	TidalVolume       float64 `msgpack:"tidal"`
	Rate              float64 `msgpack:"rate"`
	MinuteVentilation float64 `msgpack:"ve"`
	PeakFlow          float64 `msgpack:"pif"`
	// Baselined is false when the volume was read off the raw trace.
	Baselined bool `msgpack:"baselined"`
}

func (r *BreathRecord) String() string {
	return fmt.Sprintf("<BreathRecord: onset=%.3fs tidal=%.3fL rate=%.1f/min>", r.OnsetTime, r.TidalVolume, r.Rate)
}

type HistoryConfig struct {
	// Dir is the badger directory; empty keeps the history in memory.
	Dir          string
	Session      uuid.UUID
	CacheEnabled bool
	// MinBreathGap is the smallest onset shift, in seconds, that counts as
	// a new breath rather than a revised onset of the current one.
	MinBreathGap float64
	// Retention drops records older than this many seconds before the
	// newest onset; zero keeps everything.
	Retention float64
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Session:      uuid.New(),
		CacheEnabled: true,
		MinBreathGap: 0.5,
	}
}

// History is a Sink that keeps one record per breath. The newest breath is
// updated in place while it is still in progress.
type History struct {
	store   *BackingStore
	config  HistoryConfig
	current *BreathRecord
	logger  *slog.Logger
}

func OpenHistory(config HistoryConfig, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := storage.OpenBadger(storage.BadgerBackendConfig{Dir: config.Dir, Logger: logger})
	if err != nil {
		return nil, err
	}
	return NewHistory(storage.NewBadgerBacked(db), config, logger)
}

func NewHistory(backend storage.Backend, config HistoryConfig, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Session == uuid.Nil {
		config.Session = uuid.New()
	}
	store, err := NewBackingStore(backend, config.CacheEnabled)
	if err != nil {
		return nil, err
	}
	return &History{
		store:  store,
		config: config,
		logger: logger.With("session", config.Session),
	}, nil
}

func (h *History) Session() uuid.UUID {
	return h.config.Session
}

func (h *History) Publish(ctx context.Context, result *Result) error {
	if result.State != Tracking || result.Tidal == nil || result.Stale {
		return nil
	}

	record := &BreathRecord{
		OnsetTime:         result.Tidal.OnsetTime,
		PeakTime:          result.Tidal.PeakTime,
		TidalVolume:       result.Tidal.Volume,
		Rate:              result.Metrics.Rate,
		MinuteVentilation: result.Metrics.MinuteVentilation,
		PeakFlow:          result.Metrics.PeakFlow,
		Baselined:         result.Baseline != nil,
	}

	if h.current != nil && math.Abs(record.OnsetTime-h.current.OnsetTime) < h.config.MinBreathGap {
		if *record == *h.current {
			return nil
		}
		if record.OnsetTime != h.current.OnsetTime {
			if err := h.store.Delete(h.config.Session, h.current.OnsetTime); err != nil {
				return fmt.Errorf("error moving breath onset: %w", err)
			}
		}
	} else if h.current != nil && record.OnsetTime < h.current.OnsetTime {
		// an older breath resurfacing after a window change is already stored
		return nil
	}

	if err := h.store.Put(h.config.Session, record); err != nil {
		return fmt.Errorf("error storing breath: %w", err)
	}
	if h.current == nil || record.OnsetTime != h.current.OnsetTime {
		h.logger.Debug("breath", "onset", record.OnsetTime)
	}
	h.current = record

	if h.config.Retention > 0 {
		n, err := h.store.DeleteBefore(h.config.Session, record.OnsetTime-h.config.Retention)
		if err != nil {
			return fmt.Errorf("error pruning history: %w", err)
		}
		if n > 0 {
			h.logger.Debug("pruned history", "records", n)
		}
	}
	return nil
}

func (h *History) Get(onset float64) (*BreathRecord, error) {
	return h.store.Get(h.config.Session, onset)
}

// Range returns the breaths with from <= onset < to.
func (h *History) Range(from, to float64) ([]*BreathRecord, error) {
	return h.store.Range(h.config.Session, from, to)
}

// All returns every stored breath in onset order.
func (h *History) All() ([]*BreathRecord, error) {
	return h.Range(math.Inf(-1), math.Inf(1))
}

func (h *History) Prune(before float64) (int, error) {
	return h.store.DeleteBefore(h.config.Session, before)
}

func (h *History) Close() error {
	return h.store.Close()
}
