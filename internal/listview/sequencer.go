package listview

import (
	"context"
	"sync/atomic"
)

// Sequencer numbers issued requests. Only a response whose number equals
// Latest may be applied, which makes the last issued request win regardless
// of the order responses arrive in.
type Sequencer interface {
	Next(ctx context.Context) (uint64, error)
	Latest(ctx context.Context) (uint64, error)
}

// CounterSequencer is an in-process Sequencer.
type CounterSequencer struct {
	n atomic.Uint64
}

// Next issues the next request number.
func (s *CounterSequencer) Next(context.Context) (uint64, error) {
	return s.n.Add(1), nil
}

// Latest returns the most recently issued number.
func (s *CounterSequencer) Latest(context.Context) (uint64, error) {
	return s.n.Load(), nil
}
