package message

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"openchat/internal/metrics"
	"openchat/internal/realtime"
	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

const (
	MaxContentLength = 2000
	MaxHistoryLimit  = 500
	purgeBatchSize   = 200
)

type Service interface {
	ListRecent(ctx context.Context, limit int) ([]*Message, error)
	Create(ctx context.Context, who transcript.Identity, req CreateMessageRequest) (*Message, error)
	Delete(ctx context.Context, id string, who transcript.Identity) error
	DeleteOwn(ctx context.Context, who transcript.Identity, kind DeleteKind) (int, error)
	Counts(ctx context.Context, who transcript.Identity) (*MessageCounts, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Cache is the list cache in front of the repository.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Cooldown hands out one send slot per identity per window.
type Cooldown interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, key string) error
}

// MediaStore removes attachment objects of deleted messages.
type MediaStore interface {
	RemoveByURL(ctx context.Context, url string) error
}

type Options struct {
	HistoryLimit int
	SendCooldown time.Duration
	CacheTTL     time.Duration
}

type service struct {
	repo        Repository
	cache       Cache
	cooldown    Cooldown
	media       MediaStore
	publisher   realtime.Publisher
	metrics     *metrics.Metrics
	logger      *zap.SugaredLogger
	opts        Options
	cachePrefix string
}

func NewService(
	repo Repository,
	cache Cache,
	cooldown Cooldown,
	media MediaStore,
	publisher realtime.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	return &service{
		repo:        repo,
		cache:       cache,
		cooldown:    cooldown,
		media:       media,
		publisher:   publisher,
		metrics:     m,
		logger:      logger.Sugar(),
		opts:        opts,
		cachePrefix: "messages:recent",
	}
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = s.opts.HistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	cacheKey := fmt.Sprintf("%s:limit:%d", s.cachePrefix, limit)
	if s.cache != nil {
		var cached []*Message
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warnw("Message cache read failed", "key", cacheKey, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	messages, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, messages, s.opts.CacheTTL); err != nil {
			s.logger.Warnw("Message cache write failed", "key", cacheKey, "error", err)
		}
	}
	return messages, nil
}

func (s *service) Create(ctx context.Context, who transcript.Identity, req CreateMessageRequest) (*Message, error) {
	if strings.TrimSpace(who.Nickname) == "" {
		return nil, apperrors.ErrIdentityRequired
	}

	msg := &Message{
		Nickname: who.Nickname,
		Content:  trimmed(req.Content),
		ImageURL: trimmed(req.ImageURL),
		AudioURL: trimmed(req.AudioURL),
		ReplyTo:  trimmed(req.ReplyTo),
	}
	if who.ID != "" {
		id := who.ID
		msg.UserID = &id
	}

	if msg.Content == nil && msg.ImageURL == nil && msg.AudioURL == nil {
		return nil, apperrors.ErrEmptyMessage
	}
	if msg.Content != nil && utf8.RuneCountInString(*msg.Content) > MaxContentLength {
		return nil, fmt.Errorf("%w: limit is %d characters", apperrors.ErrMessageTooLong, MaxContentLength)
	}
	if msg.ReplyTo != nil {
		if _, err := uuid.Parse(*msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply_to is not a message id", apperrors.ErrBadRequest)
		}
		if _, err := s.repo.GetByID(ctx, *msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply target: %w", err)
		}
	}

	key := cooldownKey(who)
	acquired := false
	if s.cooldown != nil && s.opts.SendCooldown > 0 {
		ok, remaining, err := s.cooldown.Acquire(ctx, key, s.opts.SendCooldown)
		switch {
		case err != nil:
			s.logger.Warnw("Cooldown check failed, allowing send", "key", key, "error", err)
		case !ok:
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			return nil, &CooldownError{Remaining: remaining}
		default:
			acquired = true
		}
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, msg); err != nil {
		if acquired {
			if rerr := s.cooldown.Release(ctx, key); rerr != nil {
				s.logger.Warnw("Failed to release cooldown", "key", key, "error", rerr)
			}
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, transcript.ChangeInsert, msg, nil)

	s.logger.Infow("Message created", "id", msg.ID, "nickname", msg.Nickname)
	return msg, nil
}

func (s *service) Delete(ctx context.Context, id string, who transcript.Identity) error {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !msg.Transcript().OwnedBy(who) {
		return fmt.Errorf("%w: only the author can delete this message", apperrors.ErrForbidden)
	}
	return s.remove(ctx, []*Message{msg})
}

func (s *service) DeleteOwn(ctx context.Context, who transcript.Identity, kind DeleteKind) (int, error) {
	messages, err := s.repo.ListByAuthor(ctx, who, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to list own messages: %w", err)
	}
	if err := s.remove(ctx, messages); err != nil {
		return 0, err
	}
	return len(messages), nil
}

func (s *service) Counts(ctx context.Context, who transcript.Identity) (*MessageCounts, error) {
	return s.repo.CountByAuthor(ctx, who)
}

// PurgeOlderThan deletes every message created before cutoff in batches
// and returns how many were removed.
func (s *service) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	total := 0
	for {
		batch, err := s.repo.ListOlderThan(ctx, cutoff, purgeBatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to list expired messages: %w", err)
		}
		if len(batch) == 0 {
			return total, nil
		}
		if err := s.remove(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
		if len(batch) < purgeBatchSize {
			return total, nil
		}
	}
}

func (s *service) remove(ctx context.Context, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	if err := s.repo.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	s.invalidate(ctx)

	for _, m := range messages {
		s.removeMedia(ctx, m)
		s.publish(ctx, transcript.ChangeDelete, nil, m)
	}
	return nil
}

func (s *service) removeMedia(ctx context.Context, m *Message) {
	if s.media == nil {
		return
	}
	for _, url := range []*string{m.ImageURL, m.AudioURL} {
		if url == nil || *url == "" {
			continue
		}
		if err := s.media.RemoveByURL(ctx, *url); err != nil {
			s.logger.Warnw("Failed to remove attachment", "message_id", m.ID, "url", *url, "error", err)
		}
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.DeleteByPattern(ctx, s.cachePrefix+":*"); err != nil {
		s.logger.Warnw("Failed to invalidate message cache", "error", err)
	}
}

func (s *service) publish(ctx context.Context, typ transcript.ChangeType, newRow, oldRow *Message) {
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
	change, err := realtime.NewChange(transcript.TableMessages, typ, n, o)
	if err != nil {
		s.logger.Errorw("Failed to encode change", "type", typ, "error", err)
		return
	}
	s.publisher.Publish(ctx, change)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
