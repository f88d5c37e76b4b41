package watch

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// PendingChangeSet is a bounded, insertion-ordered set of changed paths
// awaiting a settle. Re-recording a path moves it to the back; once the
// configured capacity is exceeded the least-recently-updated path is
// evicted, so a firehose of events cannot grow memory without bound.
//
// Safe for concurrent use. The mutex is held only for map mutation,
// never across downstream calls.
type PendingChangeSet struct {
	capacity int

	mu    sync.Mutex
	order *list.List               // front = least recently updated
	items map[string]*list.Element // path -> element whose Value is pendingChange
}

type pendingChange struct {
	path string
	at   time.Time
}

// NewPendingChangeSet creates a set holding at most capacity paths.
func NewPendingChangeSet(capacity int) *PendingChangeSet {
	return &PendingChangeSet{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Record adds path with the current time, or refreshes it and moves it
// to the back of the eviction order.
func (s *PendingChangeSet) Record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[path]; ok {
		elem.Value.(*pendingChange).at = time.Now()
		s.order.MoveToBack(elem)
		return
	}

	s.items[path] = s.order.PushBack(&pendingChange{path: path, at: time.Now()})

	if s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		evicted := oldest.Value.(*pendingChange).path
		delete(s.items, evicted)
		slog.Warn("Pending change set full, evicted oldest entry",
			"path", evicted,
			"capacity", s.capacity)
	}
}

// Drain removes and returns all pending paths in least-recently-updated
// order.
func (s *PendingChangeSet) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, s.order.Len())
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		paths = append(paths, elem.Value.(*pendingChange).path)
	}
	s.order.Init()
	s.items = make(map[string]*list.Element)
	return paths
}

// Len returns the number of pending paths.
func (s *PendingChangeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
