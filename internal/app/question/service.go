package question

import (
	"context"
	"errors"
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

const maxAnswerLength = 2000

type Service interface {
	Current(ctx context.Context) (*CurrentResponse, error)
	// EnsureCurrent activates the next bank question once the active one
	// has been up for RotationAge. It reports whether a rotation happened.
	EnsureCurrent(ctx context.Context) (bool, error)
	Answer(ctx context.Context, questionID string, who transcript.Identity, req AnswerRequest) (*Answer, error)
	Answers(ctx context.Context, questionID string) ([]*Answer, error)
}

type service struct {
	repo      Repository
	publisher realtime.Publisher
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewService(repo Repository, publisher realtime.Publisher, m *metrics.Metrics, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Sugar(),
		now:       time.Now,
	}
}

func (s *service) Current(ctx context.Context) (*CurrentResponse, error) {
	q, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}
	return &CurrentResponse{Question: q, NextRotationAt: q.CreatedAt.Add(RotationAge)}, nil
}

func (s *service) EnsureCurrent(ctx context.Context) (bool, error) {
	now := s.now().UTC()

	active, err := s.repo.Active(ctx)
	var entry BankEntry
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		entry = Bank[0]
	case err != nil:
		return false, fmt.Errorf("failed to load active question: %w", err)
	case now.Sub(active.CreatedAt) < RotationAge:
		s.logger.Infow("Daily question still active",
			"id", active.ID,
			"remaining", active.CreatedAt.Add(RotationAge).Sub(now).Truncate(time.Minute).String(),
		)
		return false, nil
	default:
		entry = ForDay(now)
	}

	next := &Question{
		ID:           uuid.NewString(),
		Text:         entry.English,
		TextSomali:   entry.Somali,
		QuestionDate: now.Format(time.DateOnly),
		CreatedAt:    now,
	}
	if err := s.repo.Activate(ctx, next); err != nil {
		return false, fmt.Errorf("failed to activate question: %w", err)
	}

	if s.metrics != nil {
		s.metrics.QuestionRotated.Inc()
	}
	s.publish(ctx, next.TableName(), transcript.ChangeInsert, next)
	s.logger.Infow("Daily question rotated", "id", next.ID)
	return true, nil
}

func (s *service) Answer(ctx context.Context, questionID string, who transcript.Identity, req AnswerRequest) (*Answer, error) {
	if who.ID == "" {
		return nil, apperrors.ErrIdentityRequired
	}
	if _, err := s.repo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	text := trimmed(req.AnswerText)
	audio := trimmed(req.AnswerAudioURL)
	if text == nil && audio == nil {
		return nil, fmt.Errorf("%w: answer needs text or an audio clip", apperrors.ErrBadRequest)
	}
	if text != nil && utf8.RuneCountInString(*text) > maxAnswerLength {
		return nil, apperrors.ErrMessageTooLong
	}

	now := s.now().UTC()
	a := &Answer{
		ID:             uuid.NewString(),
		QuestionID:     questionID,
		UserID:         who.ID,
		Nickname:       who.Nickname,
		AnswerText:     text,
		AnswerAudioURL: audio,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	inserted, err := s.repo.UpsertAnswer(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	typ := transcript.ChangeUpdate
	if inserted {
		typ = transcript.ChangeInsert
	}
	s.publish(ctx, TableAnswers, typ, a)
	return a, nil
}

func (s *service) Answers(ctx context.Context, questionID string) ([]*Answer, error) {
	if _, err := s.repo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	answers, err := s.repo.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	if answers == nil {
		answers = []*Answer{}
	}
	return answers, nil
}

func (s *service) publish(ctx context.Context, table string, typ transcript.ChangeType, row interface{}) {
	if s.publisher == nil {
		return
	}
	change, err := realtime.NewChange(table, typ, row, nil)
	if err != nil {
		s.logger.Errorw("Failed to encode change", "table", table, "error", err)
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
