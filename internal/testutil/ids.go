package testutil

import (
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates predictable UUIDs for tests and scenarios.
//
// The n-th id is 00000000-0000-7000-8000-<n as 12 hex digits>, so ids are
// readable in golden transcripts and sort in creation order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a generator whose first id ends in ...0001.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NewID returns the next id.
//
// Implements identity.Generator interface.
func (g *SequentialIDs) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return SequentialID(g.seq)
}

// Reset restarts the sequence. After Reset(), the next id ends in ...0001.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// SequentialID returns the n-th id produced by SequentialIDs.
func SequentialID(n uint64) uuid.UUID {
	var id uuid.UUID
	id[6] = 0x70
	id[8] = 0x80
	for i := 15; i >= 10; i-- {
		id[i] = byte(n)
		n >>= 8
	}
	return id
}
