package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "openchat/pkg/errors"
)

const (
	minNicknameLen = 2
	maxNicknameLen = 24
	maxMembers     = 200
)

type Service interface {
	Register(ctx context.Context, nickname string) (*AuthResponse, error)
	Available(ctx context.Context, nickname string) (bool, error)
	LoginByID(ctx context.Context, id string) (*AuthResponse, error)
	LoginByNickname(ctx context.Context, nickname string) (*AuthResponse, error)
	Claim(ctx context.Context, id, nickname string) (*AuthResponse, error)
	Touch(ctx context.Context, id string) error
	Members(ctx context.Context) ([]Member, int, error)
}

// TokenIssuer signs identity tokens handed out at register and login.
type TokenIssuer interface {
	Issue(userID, nickname string) (string, time.Time, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tokens: tokens,
		logger: logger.Sugar(),
		now:    time.Now,
	}
}

func normalizeNickname(nickname string) (string, error) {
	n := strings.TrimSpace(nickname)
	l := utf8.RuneCountInString(n)
	if l < minNicknameLen || l > maxNicknameLen {
		return "", fmt.Errorf("%w: nickname must be %d-%d characters", apperrors.ErrBadRequest, minNicknameLen, maxNicknameLen)
	}
	return n, nil
}

func (s *service) Register(ctx context.Context, nickname string) (*AuthResponse, error) {
	n, err := normalizeNickname(nickname)
	if err != nil {
		return nil, err
	}

	available, err := s.Available(ctx, n)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperrors.ErrNicknameTaken
	}

	now := s.now().UTC()
	u := &User{
		ID:         uuid.NewString(),
		Nickname:   n,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	s.logger.Infow("User registered", "id", u.ID, "nickname", u.Nickname)
	return s.authenticate(u)
}

func (s *service) Available(ctx context.Context, nickname string) (bool, error) {
	_, err := s.repo.GetByNickname(ctx, strings.TrimSpace(nickname))
	if errors.Is(err, apperrors.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return false, nil
}

func (s *service) LoginByID(ctx context.Context, id string) (*AuthResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: user id is not valid", apperrors.ErrBadRequest)
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, u)
}

func (s *service) LoginByNickname(ctx context.Context, nickname string) (*AuthResponse, error) {
	u, err := s.repo.GetByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		return nil, err
	}
	return s.login(ctx, u)
}

// Claim recovers an account when both the id and the nickname match.
func (s *service) Claim(ctx context.Context, id, nickname string) (*AuthResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: user id is not valid", apperrors.ErrBadRequest)
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Nickname != strings.TrimSpace(nickname) {
		return nil, apperrors.ErrNotFound
	}
	return s.login(ctx, u)
}

func (s *service) Touch(ctx context.Context, id string) error {
	return s.repo.TouchActive(ctx, id, s.now().UTC())
}

// Members lists users by recent activity and counts who is online.
func (s *service) Members(ctx context.Context) ([]Member, int, error) {
	users, err := s.repo.ListMembers(ctx, maxMembers)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}

	cutoff := s.now().Add(-OnlineWindow)
	members := make([]Member, 0, len(users))
	online := 0
	for _, u := range users {
		m := Member{
			ID:         u.ID,
			Nickname:   u.Nickname,
			LastActive: u.LastActive,
			Online:     u.LastActive.After(cutoff),
		}
		if m.Online {
			online++
		}
		members = append(members, m)
	}
	return members, online, nil
}

func (s *service) login(ctx context.Context, u *User) (*AuthResponse, error) {
	u.LastActive = s.now().UTC()
	if err := s.repo.TouchActive(ctx, u.ID, u.LastActive); err != nil {
		s.logger.Warnw("Failed to update last active", "id", u.ID, "error", err)
	}
	return s.authenticate(u)
}

func (s *service) authenticate(u *User) (*AuthResponse, error) {
	token, expires, err := s.tokens.Issue(u.ID, u.Nickname)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:          u,
		Token:         token,
		ExpiresAt:     expires,
		ShareableCode: u.ShareableCode(),
	}, nil
}
