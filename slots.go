package dispatcher

import (
	"sync"

	"github.com/google/uuid"
)

// UserSlots tracks, per user, how many jobs the current process has
// admitted beyond Pending but not yet moved to a terminal state
// (spec.md §4.5). The dispatcher increments it after a successful
// store.ClaimNext and decrements it when the job's worker finishes; it
// does not consult it before claiming.
//
// UserSlots is the only other piece of process-wide mutable state besides
// the Gate (a buffered channel); UserSlots is protected by a plain mutex
// per the design notes in spec.md §9 rather than any lock-free trick,
// since contention here is bounded by worker count, not request rate.
type UserSlots struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

// NewUserSlots creates an empty UserSlots tracker.
func NewUserSlots() *UserSlots {
	return &UserSlots{counts: make(map[uuid.UUID]int)}
}

// HasRoom reports whether user has at least one free slot under limit.
func (s *UserSlots) HasRoom(user uuid.UUID, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[user] < limit
}

// Acquire increments the in-flight count for user. Callers must only call
// Acquire after the store has atomically confirmed admission; Acquire
// itself does not enforce limit, since the store's ClaimNext query is the
// single source of truth for admission (spec.md §4.7 tie-break notes).
func (s *UserSlots) Acquire(user uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[user]++
}

// Release decrements the in-flight count for user, pruning the entry once
// it reaches zero so the map does not grow without bound across the
// lifetime of a long-running process.
func (s *UserSlots) Release(user uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[user] <= 1 {
		delete(s.counts, user)
		return
	}
	s.counts[user]--
}

// InFlight reports the current in-flight count for user.
func (s *UserSlots) InFlight(user uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[user]
}
