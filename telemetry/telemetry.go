// Package telemetry publishes breath events over MQTT v5.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"tidalflow/core"
)

// Publisher is the part of a paho client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, packet *paho.Publish) (*paho.PublishResponse, error)
}

type EventKind string

const (
	KindBreath EventKind = "breath"
	KindState  EventKind = "state"
)

// Event is the JSON payload of every message.
type Event struct {
	ID                string    `json:"id"`
	Kind              EventKind `json:"kind"`
	Session           string    `json:"session,omitempty"`
	State             string    `json:"state"`
	Time              float64   `json:"time"`
	OnsetTime         float64   `json:"onset,omitempty"`
	PeakTime          float64   `json:"peak,omitempty"`
	TidalVolume       float64   `json:"tidal,omitempty"`
	Rate              float64   `json:"rate,omitempty"`
	MinuteVentilation float64   `json:"ve,omitempty"`
	PeakFlow          float64   `json:"pif,omitempty"`
	Published         time.Time `json:"published"`
}

type Config struct {
	Topic   string
	QoS     byte
	Retain  bool
	Session string
	// MinBreathGap is the smallest onset shift, in seconds, that starts a
	// new breath.
	MinBreathGap float64
}

func DefaultConfig() Config {
	return Config{
		Topic:        "tidalflow/breaths",
		QoS:          1,
		MinBreathGap: 0.5,
	}
}

// Sink is a core.Sink that publishes one breath event when a breath is
// complete, that is when the next onset appears, and one state event on
// every engine state change.
type Sink struct {
	client  Publisher
	config  Config
	logger  *slog.Logger
	state   core.State
	current *Event
	now     func() time.Time
}

func NewSink(client Publisher, config Config, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		client: client,
		config: config,
		logger: logger.With("topic", config.Topic),
		state:  core.Idle,
		now:    time.Now,
	}
}

func (s *Sink) Publish(ctx context.Context, result *core.Result) error {
	if result.Stale {
		return nil
	}
	if result.State != s.state {
		s.state = result.State
		event := s.event(KindState, result)
		if err := s.send(ctx, event); err != nil {
			return err
		}
	}
	if result.State != core.Tracking || result.Tidal == nil {
		return nil
	}

	latest := s.event(KindBreath, result)
	latest.OnsetTime = result.Tidal.OnsetTime
	latest.PeakTime = result.Tidal.PeakTime
	latest.TidalVolume = result.Tidal.Volume
	latest.Rate = result.Metrics.Rate
	latest.MinuteVentilation = result.Metrics.MinuteVentilation
	latest.PeakFlow = result.Metrics.PeakFlow

	switch {
	case s.current == nil || math.Abs(latest.OnsetTime-s.current.OnsetTime) < s.config.MinBreathGap:
		s.current = latest
	case latest.OnsetTime > s.current.OnsetTime:
		done := s.current
		s.current = latest
		return s.send(ctx, done)
	}
	return nil
}

func (s *Sink) event(kind EventKind, result *core.Result) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Session: s.config.Session,
		State:   result.State.String(),
		Time:    result.Time,
	}
}

func (s *Sink) send(ctx context.Context, event *Event) error {
	event.Published = s.now()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding %s event: %w", event.Kind, err)
	}

	format := byte(1)
	res, err := s.client.Publish(ctx, &paho.Publish{
		QoS:     s.config.QoS,
		Retain:  s.config.Retain,
		Topic:   s.config.Topic,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType:   "application/json",
			PayloadFormat: &format,
		},
	})
	if err != nil {
		return fmt.Errorf("error publishing %s event: %w", event.Kind, err)
	}
	// QoS 0 publishes may come back without a response
	if res != nil && res.ReasonCode >= 0x80 {
		reason := ""
		if res.Properties != nil {
			reason = res.Properties.ReasonString
		}
		return fmt.Errorf("%s event rejected: reason code 0x%02x %s", event.Kind, res.ReasonCode, reason)
	}
	s.logger.Debug("published", "kind", event.Kind, "id", event.ID, "time", event.Time)
	return nil
}
