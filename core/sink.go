package core

import "context"

// Sink receives every tick result. Publish is called from the tick loop
// and should not block for long.
type Sink interface {
	Publish(ctx context.Context, result *Result) error
}

type SinkFunc func(ctx context.Context, result *Result) error

func (f SinkFunc) Publish(ctx context.Context, result *Result) error {
	return f(ctx, result)
}
