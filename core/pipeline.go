package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"tidalflow/flow"
)

const QueueSize = 100

const (
	DefaultTickInterval = 10 * time.Millisecond
	DefaultBufferSize   = 64
	DefaultNumBuffers   = 8
)

// SampleReader is a source of flow samples. Read fills dst and returns the
// number of samples written; io.EOF marks the end of the source.
type SampleReader interface {
	Read(dst []flow.Sample) (int, error)
}

// Pipeline drives an Engine from a live stream: a producer appends samples
// through an Ingester and a tick loop, started by Run, drains them into the
// engine on every tick and hands the result to the sinks.
type Pipeline struct {
	engine   *Engine
	ingester *Ingester
	barrier  *Barrier
	sinks    []Sink
	logger   *slog.Logger

	tickInterval time.Duration
	numElements  int64

	emptyBuffers chan *IngestBuffer
	tickQueue    chan *IngestBuffer
}

func NewPipeline(engine *Engine) *Pipeline {
	emptyBuffers := make(chan *IngestBuffer, QueueSize)
	tickQueue := make(chan *IngestBuffer, QueueSize+1)
	pipeline := &Pipeline{
		engine:       engine,
		ingester:     NewIngester(emptyBuffers, tickQueue),
		barrier:      NewBarrier(),
		logger:       engine.logger,
		tickInterval: DefaultTickInterval,
		emptyBuffers: emptyBuffers,
		tickQueue:    tickQueue,
	}
	return pipeline.SetBufferSize(DefaultBufferSize, DefaultNumBuffers)
}

func (p *Pipeline) SetTickInterval(interval time.Duration) *Pipeline {
	p.tickInterval = interval
	return p
}

// SetBufferSize replaces the buffer pool. It must be called before Run.
func (p *Pipeline) SetBufferSize(eachBufferSize int, numBuffers int) *Pipeline {
	p.destroyEmptyBuffers()
	numBuffers = min(max(numBuffers, 1), QueueSize)
	for i := 0; i < numBuffers; i++ {
		p.emptyBuffers <- NewIngestBuffer(max(eachBufferSize, 1))
	}
	return p
}

func (p *Pipeline) SetLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

func (p *Pipeline) AddSink(sink Sink) *Pipeline {
	p.sinks = append(p.sinks, sink)
	return p
}

func (p *Pipeline) destroyEmptyBuffers() {
loop:
	for {
		select {
		case buffer := <-p.emptyBuffers:
			if buffer != nil {
				buffer.Clear()
			}
		default:
			break loop
		}
	}
}

// Run starts the tick loop. It returns immediately; the loop stops when ctx
// is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	go p.loop(ctx)
}

func (p *Pipeline) loop(ctx context.Context) {
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) tick(ctx context.Context) {
	flushes := 0
drain:
	for {
		select {
		case buffer := <-p.tickQueue:
			if buffer == ConstFlushIngestBuffer() {
				flushes++
				continue
			}
			// rejected samples are counted and logged by the engine
			_ = p.engine.Append(buffer.Samples()...)
			buffer.Clear()
			p.emptyBuffers <- buffer
		default:
			break drain
		}
	}

	result := p.engine.Tick()
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, result); err != nil {
			p.logger.Error("sink publish failed", "err", err)
		}
	}
	for ; flushes > 0; flushes-- {
		p.barrier.Notify()
	}
}

func (p *Pipeline) Append(samples ...flow.Sample) {
	for _, s := range samples {
		p.ingester.Append(s)
		p.numElements += 1
	}
}

// Flush hands over any partially filled buffer and waits until a tick has
// analysed it and published the result.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.ingester.Flush()
	return p.barrier.Wait(ctx)
}

// NumElements is the number of samples appended so far.
func (p *Pipeline) NumElements() int64 {
	return p.numElements
}

// Feed pumps samples from r into the pipeline until r is exhausted or ctx
// is cancelled, then flushes.
func (p *Pipeline) Feed(ctx context.Context, r SampleReader) error {
	chunk := make([]flow.Sample, DefaultBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(chunk)
		p.Append(chunk[:n]...)
		if errors.Is(err, io.EOF) {
			return p.Flush(ctx)
		}
		if err != nil {
			return err
		}
	}
}
