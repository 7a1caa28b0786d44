package message

import (
	"context"
	"sort"
	"sync"
	"time"

	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

type memRepo struct {
	mu        sync.Mutex
	rows      map[string]*Message
	createErr error
}

func newMemRepo(rows ...*Message) *memRepo {
	r := &memRepo{rows: make(map[string]*Message)}
	for _, m := range rows {
		r.rows[m.ID] = m
	}
	return r
}

func (r *memRepo) sorted() []*Message {
	out := make([]*Message, 0, len(r.rows))
	for _, m := range r.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memRepo) ListRecent(_ context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *memRepo) Create(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.rows[msg.ID] = msg
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m, nil
}

func (r *memRepo) Delete(_ context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func (r *memRepo) ListByAuthor(_ context.Context, who transcript.Identity, kind DeleteKind) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.sorted() {
		if !m.Transcript().OwnedBy(who) {
			continue
		}
		p := m.Transcript().Payload()
		if (kind == DeleteImages && !p.Image) || (kind == DeleteAudio && !p.Audio) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memRepo) CountByAuthor(ctx context.Context, who transcript.Identity) (*MessageCounts, error) {
	all, _ := r.ListByAuthor(ctx, who, DeleteAll)
	var c MessageCounts
	for _, m := range all {
		p := m.Transcript().Payload()
		c.Total++
		if p.Text {
			c.Text++
		}
		if p.Image {
			c.Images++
		}
		if p.Audio {
			c.Audio++
		}
	}
	return &c, nil
}

func (r *memRepo) ListOlderThan(_ context.Context, cutoff time.Time, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.sorted() {
		if m.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

type memCache struct {
	mu          sync.Mutex
	hits        int
	sets        int
	invalidated int
	data        map[string][]*Message
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]*Message)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	*(dst.(*[]*Message)) = v
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value.([]*Message)
	return nil
}

func (c *memCache) DeleteByPattern(_ context.Context, _ string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.data)
	c.data = make(map[string][]*Message)
	c.invalidated++
	return n, nil
}

// slotCooldown mimics SET NX PX against a settable clock.
type slotCooldown struct {
	mu       sync.Mutex
	now      time.Time
	until    map[string]time.Time
	released []string
}

func newSlotCooldown() *slotCooldown {
	return &slotCooldown{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), until: make(map[string]time.Time)}
}

func (c *slotCooldown) Acquire(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if until, ok := c.until[key]; ok && c.now.Before(until) {
		return false, until.Sub(c.now), nil
	}
	c.until[key] = c.now.Add(window)
	return true, 0, nil
}

func (c *slotCooldown) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.until, key)
	c.released = append(c.released, key)
	return nil
}

func (c *slotCooldown) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []transcript.Change
}

func (p *recordingPublisher) Publish(_ context.Context, change transcript.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) types() []transcript.ChangeType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]transcript.ChangeType, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Type
	}
	return out
}

type recordingMedia struct {
	mu      sync.Mutex
	removed []string
}

func (m *recordingMedia) RemoveByURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}
