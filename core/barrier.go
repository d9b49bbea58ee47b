package core

import "context"

// Barrier lets the producer wait until the tick loop has analysed
// everything queued before a flush.
type Barrier struct {
	done chan bool
}

func NewBarrier() *Barrier {
	return &Barrier{
		done: make(chan bool, QueueSize),
	}
}

func (b *Barrier) Notify() {
	b.done <- true
}

func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
