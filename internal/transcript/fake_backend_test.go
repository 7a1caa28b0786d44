package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type fakeSub struct {
	table   string
	handler ChangeHandler
	ready   chan struct{}
	errc    chan error

	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Ready() <-chan struct{} { return s.ready }
func (s *fakeSub) Err() <-chan error      { return s.errc }

func (s *fakeSub) Unsubscribe() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSub) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// fakeBackend is an in-memory Backend. Hooks let tests interleave realtime
// delivery with in-flight calls.
type fakeBackend struct {
	mu sync.Mutex

	messages  []Message
	reactions map[string][]Reaction
	nextID    int
	now       time.Time

	fetchErr          error
	insertErr         error
	deleteErr         error
	uploadErr         error
	reactionInsertErr error

	fetches         int
	inserts         []NewMessage
	deletes         []string
	uploads         []string
	calls           []string
	reactionInserts []NewReaction
	reactionDeletes []string
	subs            []*fakeSub

	beforeInsertReturns func(*Message)
}

func newFakeBackend(msgs ...Message) *fakeBackend {
	return &fakeBackend{
		messages:  msgs,
		reactions: make(map[string][]Reaction),
		now:       epoch.Add(time.Hour),
	}
}

func (b *fakeBackend) FetchMessages(_ context.Context, limit int) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	out := append([]Message(nil), b.messages...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (b *fakeBackend) InsertMessage(_ context.Context, nm NewMessage) (*Message, error) {
	b.mu.Lock()
	b.calls = append(b.calls, "insert")
	b.inserts = append(b.inserts, nm)
	if b.insertErr != nil {
		b.mu.Unlock()
		return nil, b.insertErr
	}
	b.nextID++
	m := Message{
		ID:        fmt.Sprintf("server-%d", b.nextID),
		Nickname:  nm.Nickname,
		Content:   nm.Content,
		ImageURL:  nm.ImageURL,
		AudioURL:  nm.AudioURL,
		ReplyTo:   nm.ReplyTo,
		CreatedAt: b.now,
	}
	if nm.UserID != "" {
		m.UserID = strPtr(nm.UserID)
	}
	b.messages = append(b.messages, m)
	hook := b.beforeInsertReturns
	b.mu.Unlock()

	if hook != nil {
		hook(&m)
	}
	return &m, nil
}

func (b *fakeBackend) DeleteMessage(_ context.Context, id string, _ Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, id)
	return b.deleteErr
}

func (b *fakeBackend) Subscribe(_ context.Context, table string, handler ChangeHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &fakeSub{
		table:   table,
		handler: handler,
		ready:   make(chan struct{}),
		errc:    make(chan error, 1),
	}
	close(sub.ready)
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *fakeBackend) Upload(_ context.Context, path, _ string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "upload:"+path)
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	b.uploads = append(b.uploads, path)
	return "https://files.example/" + path, nil
}

func (b *fakeBackend) FetchReactions(_ context.Context, messageID string) ([]Reaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Reaction(nil), b.reactions[messageID]...), nil
}

func (b *fakeBackend) InsertReaction(_ context.Context, r NewReaction) (*Reaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "react-insert:"+string(r.Kind))
	b.reactionInserts = append(b.reactionInserts, r)
	if b.reactionInsertErr != nil {
		return nil, b.reactionInsertErr
	}
	b.nextID++
	created := Reaction{
		ID:        fmt.Sprintf("reaction-%d", b.nextID),
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Kind:      r.Kind,
		CreatedAt: b.now,
	}
	b.reactions[r.MessageID] = append(b.reactions[r.MessageID], created)
	return &created, nil
}

func (b *fakeBackend) DeleteReaction(_ context.Context, messageID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "react-delete")
	b.reactionDeletes = append(b.reactionDeletes, messageID+"/"+userID)
	kept := b.reactions[messageID][:0]
	for _, r := range b.reactions[messageID] {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	b.reactions[messageID] = kept
	return nil
}

// push delivers a change to every live subscription on its table.
func (b *fakeBackend) push(c Change) {
	b.mu.Lock()
	var targets []*fakeSub
	for _, s := range b.subs {
		if s.table == c.Table && s.active() {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()
	for _, s := range targets {
		s.handler(c)
	}
}

// drop fails every live subscription.
func (b *fakeBackend) drop(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.active() {
			select {
			case s.errc <- err:
			default:
			}
		}
	}
}

func (b *fakeBackend) subscribeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *fakeBackend) activeSubs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subs {
		if s.active() {
			n++
		}
	}
	return n
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

func (b *fakeBackend) setFetchErr(err error) {
	b.mu.Lock()
	b.fetchErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) recordedCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func insertChange(m Message) Change {
	raw, _ := json.Marshal(m)
	return Change{Table: TableMessages, Type: ChangeInsert, New: raw}
}

func updateChange(m Message) Change {
	raw, _ := json.Marshal(m)
	return Change{Table: TableMessages, Type: ChangeUpdate, New: raw}
}

func deleteChange(id string) Change {
	raw, _ := json.Marshal(map[string]string{"id": id})
	return Change{Table: TableMessages, Type: ChangeDelete, Old: raw}
}

func reactionChange(t ChangeType, r Reaction) Change {
	raw, _ := json.Marshal(r)
	c := Change{Table: TableReactions, Type: t}
	if t == ChangeDelete {
		c.Old = raw
	} else {
		c.New = raw
	}
	return c
}
