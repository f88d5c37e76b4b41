// Package session caches the last status snapshot delivered to each
// polling client, enabling delta responses that carry only what changed
// since the client's previous request.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sceneminds/sceneminds/services/gitstatus"
)

// Options bounds the store.
type Options struct {
	// TTL is how long a snapshot stays valid without being refreshed.
	TTL time.Duration

	// Cap is the hard limit on concurrent sessions.
	Cap int
}

type entry struct {
	status  gitstatus.Status
	touched time.Time
}

// Store is a TTL-bounded, capacity-bounded snapshot cache.
//
// Entries expire lazily on Get; no background sweep is needed for
// correctness. When Put finds the store at capacity it first purges
// expired entries, then evicts the oldest tenth by last-touched time,
// so a full store does not thrash one eviction per insert.
//
// Safe for concurrent use.
type Store struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]entry
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	return &Store{
		opts:     opts,
		sessions: make(map[string]entry),
	}
}

// Get returns the cached snapshot for clientID, if present and fresh.
// An expired entry is deleted and reported as absent.
func (s *Store) Get(clientID string) (gitstatus.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[clientID]
	if !ok {
		return gitstatus.Status{}, false
	}
	if time.Since(e.touched) > s.opts.TTL {
		delete(s.sessions, clientID)
		return gitstatus.Status{}, false
	}
	return e.status, true
}

// Put stores a snapshot for clientID, evicting as needed to stay under
// the capacity bound.
func (s *Store) Put(clientID string, status gitstatus.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[clientID]; !exists && len(s.sessions) >= s.opts.Cap {
		s.purgeExpiredLocked()
		if len(s.sessions) >= s.opts.Cap {
			s.evictOldestLocked()
		}
	}

	s.sessions[clientID] = entry{status: status, touched: time.Now()}
}

// Count returns the current number of sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PurgeExpired removes expired entries and returns how many were
// dropped. Optional; Get already expires lazily.
func (s *Store) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeExpiredLocked()
}

func (s *Store) purgeExpiredLocked() int {
	var removed int
	for id, e := range s.sessions {
		if time.Since(e.touched) > s.opts.TTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// evictOldestLocked drops the oldest 10% of sessions by last-touched
// time, at least one.
func (s *Store) evictOldestLocked() {
	type aged struct {
		id      string
		touched time.Time
	}
	all := make([]aged, 0, len(s.sessions))
	for id, e := range s.sessions {
		all = append(all, aged{id, e.touched})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].touched.Before(all[j].touched) })

	evict := len(all) / 10
	if evict < 1 {
		evict = 1
	}
	for _, a := range all[:evict] {
		delete(s.sessions, a.id)
	}

	slog.Debug("Evicted oldest sessions at capacity", "evicted", evict, "cap", s.opts.Cap)
}
