package reaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"openchat/internal/app/message"
	"openchat/internal/realtime"
	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

type Service interface {
	List(ctx context.Context, messageID string) ([]*Reaction, error)
	React(ctx context.Context, messageID string, who transcript.Identity, kind string) (*Reaction, bool, error)
	Unreact(ctx context.Context, messageID string, who transcript.Identity) error
}

// Messages resolves the message a reaction points at.
type Messages interface {
	GetByID(ctx context.Context, id string) (*message.Message, error)
}

type service struct {
	repo        Repository
	messages    Messages
	cache       message.Cache
	publisher   realtime.Publisher
	logger      *zap.SugaredLogger
	cacheTTL    time.Duration
	cachePrefix string
}

func NewService(
	repo Repository,
	messages Messages,
	cache message.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
	cacheTTL time.Duration,
) Service {
	return &service{
		repo:        repo,
		messages:    messages,
		cache:       cache,
		publisher:   publisher,
		logger:      logger.Sugar(),
		cacheTTL:    cacheTTL,
		cachePrefix: "reactions:message",
	}
}

func (s *service) cacheKey(messageID string) string {
	return s.cachePrefix + ":" + messageID
}

func (s *service) List(ctx context.Context, messageID string) ([]*Reaction, error) {
	key := s.cacheKey(messageID)
	if s.cache != nil {
		var cached []*Reaction
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warnw("Reaction cache read failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	reactions, err := s.repo.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	if reactions == nil {
		reactions = []*Reaction{}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, reactions, s.cacheTTL); err != nil {
			s.logger.Warnw("Reaction cache write failed", "key", key, "error", err)
		}
	}
	return reactions, nil
}

// React sets who's reaction on the message, replacing any earlier kind.
// The boolean reports whether a new row was created.
func (s *service) React(ctx context.Context, messageID string, who transcript.Identity, kind string) (*Reaction, bool, error) {
	if who.ID == "" {
		return nil, false, apperrors.ErrIdentityRequired
	}
	parsed, err := transcript.ParseReactionKind(kind)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q", apperrors.ErrUnknownReaction, kind)
	}
	if _, err := s.messages.GetByID(ctx, messageID); err != nil {
		return nil, false, err
	}

	previous, err := s.repo.Get(ctx, messageID, who.ID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load reaction: %w", err)
	}

	rec := &Reaction{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    who.ID,
		Nickname:  who.Nickname,
		Kind:      string(parsed),
		CreatedAt: time.Now().UTC(),
	}
	if previous != nil {
		rec.ID = previous.ID
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, false, fmt.Errorf("failed to save reaction: %w", err)
	}

	s.invalidate(ctx, messageID)
	if previous == nil {
		s.publish(ctx, transcript.ChangeInsert, rec, nil)
	} else {
		s.publish(ctx, transcript.ChangeUpdate, rec, previous)
	}
	return rec, previous == nil, nil
}

// Unreact removes who's reaction. Removing an absent reaction succeeds.
func (s *service) Unreact(ctx context.Context, messageID string, who transcript.Identity) error {
	if who.ID == "" {
		return apperrors.ErrIdentityRequired
	}

	deleted, err := s.repo.Delete(ctx, messageID, who.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}

	s.invalidate(ctx, messageID)
	s.publish(ctx, transcript.ChangeDelete, nil, deleted)
	return nil
}

func (s *service) invalidate(ctx context.Context, messageID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.DeleteByPattern(ctx, s.cacheKey(messageID)); err != nil {
		s.logger.Warnw("Failed to invalidate reaction cache", "message_id", messageID, "error", err)
	}
}

func (s *service) publish(ctx context.Context, typ transcript.ChangeType, newRow, oldRow *Reaction) {
	if s.publisher == nil {
		return
	}
	var n, o interface{}
	if newRow != nil {
		n = newRow
	}
	if oldRow != nil {
		o = oldRow
	}
	change, err := realtime.NewChange(transcript.TableReactions, typ, n, o)
	if err != nil {
		s.logger.Errorw("Failed to encode change", "type", typ, "error", err)
		return
	}
	s.publisher.Publish(ctx, change)
}
