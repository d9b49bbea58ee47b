package core

import (
	"sync/atomic"

	"tidalflow/flow"
)

var (
	IngesterIdCounter int32 = 0
)

// IngestBuffer is a fixed-capacity batch of samples travelling from the
// producer to the tick loop.
type IngestBuffer struct {
	Capacity int
	Size     int
	id       int32
	samples  []flow.Sample
}

var flushIngestBuffer = NewIngestBuffer(0)

// ConstFlushIngestBuffer is the sentinel queued behind the data of a flush.
func ConstFlushIngestBuffer() *IngestBuffer {
	return flushIngestBuffer
}

func NewIngestBuffer(capacity int) *IngestBuffer {
	return &IngestBuffer{
		Capacity: capacity,
		Size:     0,
		id:       atomic.AddInt32(&IngesterIdCounter, 1),
		samples:  make([]flow.Sample, capacity),
	}
}

func (ib *IngestBuffer) Append(s flow.Sample) bool {
	if ib.IsFull() {
		return false
	}
	ib.samples[ib.Size] = s
	ib.Size += 1
	return true
}

func (ib *IngestBuffer) IsFull() bool {
	return ib.Size == ib.Capacity
}

func (ib *IngestBuffer) Clear() {
	ib.Size = 0
}

func (ib *IngestBuffer) Get(pos int) (flow.Sample, bool) {
	if pos < 0 || pos >= ib.Size {
		return flow.Sample{}, false
	}
	return ib.samples[pos], true
}

// Samples returns the filled part of the buffer. It is only valid until the
// buffer is cleared.
func (ib *IngestBuffer) Samples() []flow.Sample {
	return ib.samples[:ib.Size]
}

// Ingester is the producer side of the handoff. It fills buffers taken from
// emptyBuffers and queues them for the tick loop when full or flushed. Only
// one goroutine may call it.
type Ingester struct {
	activeBuffer *IngestBuffer
	emptyBuffers <-chan *IngestBuffer
	tickQueue    chan<- *IngestBuffer
}

func NewIngester(inputCh <-chan *IngestBuffer, outputCh chan<- *IngestBuffer) *Ingester {
	return &Ingester{
		activeBuffer: nil,
		emptyBuffers: inputCh,
		tickQueue:    outputCh,
	}
}

func (i *Ingester) PushActiveToQueue() {
	if i.activeBuffer != nil && i.activeBuffer.Size > 0 {
		i.tickQueue <- i.activeBuffer
		i.activeBuffer = nil
	}
}

// Append blocks while every buffer is queued and none has been recycled.
func (i *Ingester) Append(s flow.Sample) {
	if i.activeBuffer == nil {
		i.activeBuffer = <-i.emptyBuffers
	}
	i.activeBuffer.Append(s)
	if i.activeBuffer.IsFull() {
		i.PushActiveToQueue()
	}
}

func (i *Ingester) Flush() {
	i.PushActiveToQueue()
	i.tickQueue <- ConstFlushIngestBuffer()
}
