// Package sequence allocates monotonically increasing sequence numbers per
// (origin, spec) basis, mirroring the contract a Machine's issue path
// needs (spec.md §4.4). The default, in-process implementation is grounded
// on node/chainstate.go's mutex-guarded in-memory state; sequence.BoltProvider
// gives callers a durable alternative grounded on node/store/db.go's
// bbolt bucket-per-concern layout.
package sequence

import (
	"errors"
	"sync"
)

// ErrExhausted is returned when a basis's counter would overflow.
var ErrExhausted = errors.New("sequence: counter exhausted")

// Sequence is a mutable counter local to one basis (spec.md §3
// "TicketSequence"). Implementations MUST serialize Next and IsUnsequenced
// themselves; callers never add their own locking.
type Sequence interface {
	// Next returns the next sequence number for timestamp ts, resetting to
	// 0 on any timestamp strictly newer than the last one seen.
	Next(ts int64) (int64, error)
	// IsUnsequenced reports whether the counter is still at 0, or ts
	// exceeds the last-seen timestamp (spec.md §4.4) — the factory uses
	// this to decide whether a cached machine is safe to evict.
	IsUnsequenced(ts int64) bool
}

// Provider resolves a basis (its canonical textual id) to its Sequence,
// creating one on first use (spec.md §4.4 "get_sequence(basis)").
type Provider interface {
	GetSequence(basisID string) (Sequence, error)
}

// memSequence is the built-in (last_ts, counter) pair guarded by a mutex,
// the same shape node/chainstate.go keeps for its in-process chain tip.
type memSequence struct {
	mu      sync.Mutex
	lastTS  int64
	counter int64
	seeded  bool
}

func (s *memSequence) Next(ts int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded || ts > s.lastTS {
		s.lastTS = ts
		s.counter = 0
		s.seeded = true
	}
	if s.counter == int64(^uint64(0)>>1) {
		return 0, ErrExhausted
	}
	n := s.counter
	s.counter++
	return n, nil
}

func (s *memSequence) IsUnsequenced(ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.seeded || s.counter == 0 || ts > s.lastTS
}

// MemoryProvider is the default Provider: an in-process map of basis id to
// memSequence, guarded by its own mutex (spec.md §4.4's "built-in
// implementation").
type MemoryProvider struct {
	mu   sync.Mutex
	byID map[string]*memSequence
}

// NewMemoryProvider returns an empty, ready-to-use MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{byID: make(map[string]*memSequence)}
}

func (p *MemoryProvider) GetSequence(basisID string) (Sequence, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.byID[basisID]
	if !ok {
		s = &memSequence{}
		p.byID[basisID] = s
	}
	return s, nil
}
