package engine

import (
	"context"
	"errors"
)

// ErrNodeLimit is the abort cause when a search visits more nodes than allowed.
var ErrNodeLimit = errors.New("node limit reached")

// The context is polled once every pollMask+1 nodes.
const pollMask = 1023

// budget decides when a running search has to stop. It is consulted at the top
// of every recursive call and never interrupts a node half way.
type budget struct {
	ctx       context.Context
	nodeLimit uint64
	stopped   bool
	cause     error
}

func newBudget(ctx context.Context, nodeLimit uint64) *budget {
	return &budget{ctx: ctx, nodeLimit: nodeLimit}
}

// exceeded reports whether the search must unwind, given the nodes visited so far.
func (b *budget) exceeded(nodes uint64) bool {
	if b.stopped {
		return true
	}
	if b.nodeLimit > 0 && nodes >= b.nodeLimit {
		b.stop(ErrNodeLimit)
		return true
	}
	if nodes&pollMask == 0 {
		if err := b.ctx.Err(); err != nil {
			b.stop(err)
		}
	}
	return b.stopped
}

func (b *budget) stop(cause error) {
	b.stopped = true
	b.cause = cause
}
