package reaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openchat/internal/app/message"
	"openchat/internal/middleware"
	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

var ayla = transcript.Identity{ID: "0b5e3f4a-1111-4c1d-9000-00000000000a", Nickname: "ayla"}

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*Reaction
}

func key(messageID, userID string) string { return messageID + "/" + userID }

func (r *memRepo) ListByMessage(_ context.Context, messageID string) ([]*Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Reaction
	for _, rec := range r.rows {
		if rec.MessageID == messageID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, messageID, userID string) (*Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[key(messageID, userID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memRepo) Upsert(_ context.Context, rec *Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.rows[key(rec.MessageID, rec.UserID)] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, messageID, userID string) (*Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[key(messageID, userID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(r.rows, key(messageID, userID))
	return rec, nil
}

type knownMessages map[string]bool

func (k knownMessages) GetByID(_ context.Context, id string) (*message.Message, error) {
	if !k[id] {
		return nil, apperrors.ErrNotFound
	}
	return &message.Message{ID: id}, nil
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

func newTestService() (Service, *memRepo, *recordingPublisher) {
	repo := &memRepo{rows: make(map[string]*Reaction)}
	pub := &recordingPublisher{}
	svc := NewService(repo, knownMessages{"m1": true}, nil, pub, zap.NewNop(), time.Minute)
	return svc, repo, pub
}

func TestReactInsertThenReplace(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	first, created, err := svc.React(ctx, "m1", ayla, "love")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.React(ctx, "m1", ayla, "Fire")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fire", second.Kind)
	assert.Len(t, repo.rows, 1)

	require.Len(t, pub.changes, 2)
	assert.Equal(t, transcript.ChangeInsert, pub.changes[0].Type)
	assert.Equal(t, transcript.ChangeUpdate, pub.changes[1].Type)

	var wire transcript.Reaction
	require.NoError(t, json.Unmarshal(pub.changes[1].New, &wire))
	assert.Equal(t, transcript.ReactionFire, wire.Kind)
	assert.Equal(t, ayla.ID, wire.UserID)
}

func TestReactRejects(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.React(ctx, "m1", ayla, "wow")
	assert.ErrorIs(t, err, apperrors.ErrUnknownReaction)

	_, _, err = svc.React(ctx, "missing", ayla, "love")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, _, err = svc.React(ctx, "m1", transcript.Identity{Nickname: "legacy"}, "love")
	assert.ErrorIs(t, err, apperrors.ErrIdentityRequired)
}

func TestUnreactIsIdempotent(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	_, _, err := svc.React(ctx, "m1", ayla, "good")
	require.NoError(t, err)

	require.NoError(t, svc.Unreact(ctx, "m1", ayla))
	require.NoError(t, svc.Unreact(ctx, "m1", ayla))
	assert.Empty(t, repo.rows)
	require.Len(t, pub.changes, 2)
	assert.Equal(t, transcript.ChangeDelete, pub.changes[1].Type)
	assert.Contains(t, string(pub.changes[1].Old), `"reaction_type":"good"`)
}

func TestReactionRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newTestService()
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, middleware.IdentityPolicy{}))

	body := `{"user_id":"` + ayla.ID + `","nickname":"ayla","reaction_type":"motivation"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages/m1/reactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages/m1/reactions", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages/m1/reactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ReactionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Reactions, 1)
	assert.Equal(t, "motivation", list.Reactions[0].Kind)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/messages/m1/reactions?user_id="+ayla.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages/m1/reactions", strings.NewReader(`{"user_id":"`+ayla.ID+`","reaction_type":"meh"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
