package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// Stats collects node and cutoff counts for a single search.
type Stats struct {
	Nodes   uint64
	Leaves  uint64
	Cutoffs uint64
	Elapsed time.Duration
}

// MarshalZerologObject lets a Stats value be embedded in a log event.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("nodes", s.Nodes).
		Uint64("leaves", s.Leaves).
		Uint64("cutoffs", s.Cutoffs).
		Dur("elapsed", s.Elapsed)
}

// NodesPerSecond reports search throughput; zero when no time was measured.
func (s Stats) NodesPerSecond() uint64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return uint64(float64(s.Nodes) / s.Elapsed.Seconds())
}
