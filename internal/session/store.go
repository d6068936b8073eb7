// Package session keeps the pending continuation of each conversation in
// process memory.
package session

import (
	"context"
	"sync"
	"time"
)

// State is what input a conversation waits for next.
type State int

const (
	Idle State = iota
	AwaitingDebtorName
	AwaitingAmount
	AwaitingNote
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingDebtorName:
		return "awaiting_debtor_name"
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingNote:
		return "awaiting_note"
	default:
		return "unknown"
	}
}

// Continuation is the state plus the context collected so far.
// DebtorID is set from AwaitingAmount on, Amount only in AwaitingNote.
type Continuation struct {
	State     State
	DebtorID  int64
	Amount    int64
	UpdatedAt time.Time
}

// Store maps a conversation id to at most one continuation. Entries idle for
// longer than the TTL are treated as absent; a zero TTL disables expiry.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[int64]Continuation
}

func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now, items: make(map[int64]Continuation)}
}

// WithClock replaces the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(conversationID int64) (Continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[conversationID]
	if !ok {
		return Continuation{}, false
	}
	if s.expired(c, s.now()) {
		delete(s.items, conversationID)
		return Continuation{}, false
	}
	return c, true
}

// Set replaces whatever was pending for the conversation.
func (s *Store) Set(conversationID int64, c Continuation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = s.now()
	s.items[conversationID] = c
}

func (s *Store) Clear(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, conversationID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired entries and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, c := range s.items {
		if s.expired(c, now) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done. onSweep may be nil.
func (s *Store) Run(ctx context.Context, every time.Duration, onSweep func(removed int)) {
	if s.ttl <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *Store) expired(c Continuation, now time.Time) bool {
	return s.ttl > 0 && now.Sub(c.UpdatedAt) > s.ttl
}
