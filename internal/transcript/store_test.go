package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 7, 17, 12, 0, 0, 0, time.UTC)

func msg(id string, offset time.Duration, text string) Message {
	return Message{
		ID:        id,
		Nickname:  "hodan",
		Content:   strPtr(text),
		CreatedAt: epoch.Add(offset),
	}
}

func keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key()
	}
	return out
}

func TestStoreLoadOrdersAscending(t *testing.T) {
	s := NewStore()
	s.Load([]Message{msg("m2", 2*time.Second, "second"), msg("m1", time.Second, "first")})

	assert.Equal(t, []string{"m1", "m2"}, keys(s.Entries()))
}

func TestStoreLoadEmpty(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("old", 0, "x"))
	s.Load(nil)
	assert.Zero(t, s.Len())
}

func TestStoreLoadDropsDuplicateIDs(t *testing.T) {
	s := NewStore()
	s.Load([]Message{msg("m1", 0, "a"), msg("m1", 0, "b")})

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", *entries[0].Message.Content)
}

func TestStoreLoadDiscardsOptimisticEntries(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Entry{TempID: "temp-1", Message: msg("", 0, "draft")})
	s.Load([]Message{msg("m1", 0, "a")})

	assert.Equal(t, []string{"m1"}, keys(s.Entries()))
}

func TestStoreUpsertKeepsFirstPosition(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("a", 0, "a1"))
	s.Upsert(msg("b", time.Second, "b1"))
	s.Upsert(msg("c", 2*time.Second, "c1"))

	for i := 0; i < 3; i++ {
		s.Upsert(msg("a", 0, "a-updated"))
	}

	entries := s.Entries()
	assert.Equal(t, []string{"a", "b", "c"}, keys(entries))
	assert.Equal(t, "a-updated", *entries[0].Message.Content)
}

func TestStoreUpsertPreservesPendingDelete(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("a", 0, "a"))
	require.True(t, s.MarkPendingDelete("a", true))

	s.Upsert(msg("a", 0, "edited"))

	e, ok := s.Get("a")
	require.True(t, ok)
	assert.True(t, e.PendingDelete)
	assert.Equal(t, "edited", *e.Message.Content)
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	once := NewStore()
	twice := NewStore()
	for _, s := range []*Store{once, twice} {
		s.Load([]Message{msg("a", 0, "a"), msg("b", time.Second, "b")})
	}

	once.Remove("a")
	twice.Remove("a")
	twice.Remove("a")
	twice.Remove("missing")

	assert.Equal(t, once.Entries(), twice.Entries())
	assert.Equal(t, []string{"b"}, keys(twice.Entries()))
}

func TestStoreAppendOptimisticRequiresTempID(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Entry{Message: msg("", 0, "x")})
	assert.Zero(t, s.Len())
}

func TestStoreReconcileReplacesTempEntry(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("m0", 0, "earlier"))
	s.AppendOptimistic(Entry{TempID: "temp1", Message: msg("", time.Second, "hi")})
	s.Upsert(msg("m9", 2*time.Second, "arrived meanwhile"))

	server := msg("server-1", time.Second, "hi")
	s.ReconcileOptimistic("temp1", &server)

	assert.Equal(t, []string{"m0", "server-1", "m9"}, keys(s.Entries()))
	_, hasTemp := s.Get("temp1")
	assert.False(t, hasTemp)
	e, ok := s.Get("server-1")
	require.True(t, ok)
	assert.False(t, e.Pending)
	assert.Empty(t, e.TempID)
}

func TestStoreReconcileAfterRealtimeInsert(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Entry{TempID: "temp1", Message: msg("", 0, "hi")})
	server := msg("server-1", 0, "hi")

	s.Upsert(server)
	s.ReconcileOptimistic("temp1", &server)

	assert.Equal(t, []string{"server-1"}, keys(s.Entries()))
}

func TestStoreRealtimeInsertAfterReconcile(t *testing.T) {
	s := NewStore()
	s.AppendOptimistic(Entry{TempID: "temp1", Message: msg("", 0, "hi")})
	server := msg("server-1", 0, "hi")

	s.ReconcileOptimistic("temp1", &server)
	s.Upsert(server)

	assert.Equal(t, []string{"server-1"}, keys(s.Entries()))
}

func TestStoreReconcileFailureRemovesOnlyTemp(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("a", 0, "a"))
	s.AppendOptimistic(Entry{TempID: "temp1", Message: msg("", time.Second, "x")})
	s.AppendOptimistic(Entry{TempID: "temp2", Message: msg("", time.Second, "y")})
	s.Upsert(msg("b", 2*time.Second, "b"))
	before := s.Entries()

	s.ReconcileOptimistic("temp1", nil)

	after := s.Entries()
	assert.Equal(t, []string{"a", "temp2", "b"}, keys(after))
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[1])
	assert.Equal(t, before[3], after[2])
}

func TestStoreReconcileUnknownTempUpserts(t *testing.T) {
	s := NewStore()
	server := msg("server-1", 0, "hi")
	s.ReconcileOptimistic("gone", &server)
	assert.Equal(t, []string{"server-1"}, keys(s.Entries()))
}

func TestStoreEntriesIsSnapshot(t *testing.T) {
	s := NewStore()
	s.Upsert(msg("a", 0, "a"))
	snap := s.Entries()
	snap[0].Pending = true
	e, _ := s.Get("a")
	assert.False(t, e.Pending)
}
