package transcript

import (
	"sort"
	"sync"
)

// Entry is a transcript row: a message plus client-only transient state.
// Optimistic entries carry a TempID and use it as their key until the
// server record replaces them.
type Entry struct {
	Message       Message
	Pending       bool
	PendingDelete bool
	TempID        string
}

// Key is the identifier the store indexes the entry under.
func (e Entry) Key() string {
	if e.TempID != "" {
		return e.TempID
	}
	return e.Message.ID
}

// Store is the ordered, deduplicated transcript. Entries are kept oldest
// first; at most one entry exists per key. All methods are safe for
// concurrent use and none of them fail.
type Store struct {
	mu      sync.RWMutex
	entries []*Entry
	index   map[string]*Entry
}

func NewStore() *Store {
	return &Store{index: make(map[string]*Entry)}
}

// Load replaces the contents with a fetched batch, sorted by creation time.
// Optimistic entries that were not yet confirmed are dropped.
func (s *Store) Load(batch []Message) {
	sorted := make([]Message, len(batch))
	copy(sorted, batch)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]*Entry, 0, len(sorted))
	s.index = make(map[string]*Entry, len(sorted))
	for _, m := range sorted {
		if existing, ok := s.index[m.ID]; ok {
			existing.Message = m
			continue
		}
		e := &Entry{Message: m}
		s.entries = append(s.entries, e)
		s.index[m.ID] = e
	}
}

// Upsert appends an unseen message at the tail or replaces the existing
// entry in place. A pending delete on the replaced entry is kept.
func (s *Store) Upsert(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(m)
}

func (s *Store) upsertLocked(m Message) {
	if e, ok := s.index[m.ID]; ok {
		e.Message = m
		e.Pending = false
		return
	}
	e := &Entry{Message: m}
	s.entries = append(s.entries, e)
	s.index[m.ID] = e
}

// Remove deletes the entry with the given key. Unknown keys are ignored.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

func (s *Store) removeLocked(key string) bool {
	e, ok := s.index[key]
	if !ok {
		return false
	}
	delete(s.index, key)
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return true
}

// AppendOptimistic adds a speculative entry at the tail, flagged pending.
// The entry must carry a TempID.
func (s *Store) AppendOptimistic(e Entry) {
	if e.TempID == "" {
		return
	}
	e.Pending = true
	e.Message.ID = e.TempID

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[e.TempID]; ok {
		return
	}
	entry := &e
	s.entries = append(s.entries, entry)
	s.index[e.TempID] = entry
}

// ReconcileOptimistic settles a speculative entry. With a server record
// the temp entry is replaced in place by the authoritative one; if the
// realtime feed already delivered that record, the temp entry is dropped
// instead so exactly one entry remains. With nil the temp entry is removed.
func (s *Store) ReconcileOptimistic(tempID string, server *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	temp, hasTemp := s.index[tempID]
	if server == nil {
		s.removeLocked(tempID)
		return
	}
	if !hasTemp {
		s.upsertLocked(*server)
		return
	}
	if _, seen := s.index[server.ID]; seen {
		s.removeLocked(tempID)
		s.upsertLocked(*server)
		return
	}

	delete(s.index, tempID)
	temp.Message = *server
	temp.TempID = ""
	temp.Pending = false
	s.index[server.ID] = temp
}

// MarkPendingDelete flags or clears the pending-delete state of an entry.
// It reports whether the entry exists.
func (s *Store) MarkPendingDelete(key string, pending bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[key]
	if ok {
		e.PendingDelete = pending
	}
	return ok
}

// Get returns a copy of the entry stored under key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns a snapshot of the transcript, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
