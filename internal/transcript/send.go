package transcript

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"openchat/internal/clock"
)

const (
	MaxImageBytes = 1 << 20
	MaxAudioBytes = 10 << 20

	tempIDPrefix = "temp-"
)

// Attachment is a file picked for a draft.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Draft is what the user composed before pressing send.
type Draft struct {
	Text    string
	Image   *Attachment
	Audio   *Attachment
	ReplyTo string
}

// Validate checks the draft locally. It returns a *ValidationError.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" && d.Image == nil && d.Audio == nil {
		return &ValidationError{Reason: "message is empty"}
	}
	if d.Image != nil {
		if !strings.HasPrefix(d.Image.ContentType, "image/") {
			return &ValidationError{Reason: "please select an image file"}
		}
		if len(d.Image.Data) > MaxImageBytes {
			return &ValidationError{Reason: "image size must be less than 1MB"}
		}
	}
	if d.Audio != nil {
		if !strings.HasPrefix(d.Audio.ContentType, "audio/") {
			return &ValidationError{Reason: "please select an audio file"}
		}
		if len(d.Audio.Data) > MaxAudioBytes {
			return &ValidationError{Reason: fmt.Sprintf("audio size must be less than %dMB", MaxAudioBytes>>20)}
		}
	}
	return nil
}

// cooldown enforces a minimum interval between successful sends. A slot
// is reserved when a send starts so concurrent sends cannot both pass;
// the reservation is committed on success or rolled back on failure.
type cooldown struct {
	clock  clock.Clock
	period time.Duration

	mu       sync.Mutex
	last     time.Time
	reserved bool
}

func newCooldown(clk clock.Clock, period time.Duration) *cooldown {
	return &cooldown{clock: clk, period: period}
}

func (c *cooldown) reserve() (commit func(), rollback func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.reserved {
		return nil, nil, &RateLimitError{Remaining: c.period}
	}
	if !c.last.IsZero() {
		if elapsed := now.Sub(c.last); elapsed < c.period {
			return nil, nil, &RateLimitError{Remaining: c.period - elapsed}
		}
	}
	c.reserved = true

	commit = func() {
		c.mu.Lock()
		c.last = c.clock.Now()
		c.reserved = false
		c.mu.Unlock()
	}
	rollback = func() {
		c.mu.Lock()
		c.reserved = false
		c.mu.Unlock()
	}
	return commit, rollback, nil
}

// Send validates and delivers a draft. The message shows up in the
// transcript as a pending entry while the insert is in flight, and is
// swapped for the server record or rolled back when it returns.
func (s *Session) Send(ctx context.Context, d Draft) (*Message, error) {
	if !s.isMounted() {
		return nil, ErrUnmounted
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	commit, rollback, err := s.cooldown.reserve()
	if err != nil {
		return nil, err
	}
	sent := false
	defer func() {
		if sent {
			commit()
		} else {
			rollback()
		}
	}()

	nm := NewMessage{
		Nickname: s.self.Nickname,
		UserID:   s.self.ID,
	}
	if text := strings.TrimSpace(d.Text); text != "" {
		nm.Content = &text
	}
	if d.ReplyTo != "" {
		nm.ReplyTo = strPtr(d.ReplyTo)
	}
	if d.Image != nil {
		url, err := s.upload(ctx, "images", d.Image)
		if err != nil {
			return nil, err
		}
		nm.ImageURL = &url
	}
	if d.Audio != nil {
		url, err := s.upload(ctx, "audio", d.Audio)
		if err != nil {
			return nil, err
		}
		nm.AudioURL = &url
	}

	tempID := tempIDPrefix + uuid.NewString()
	s.store.AppendOptimistic(Entry{
		TempID: tempID,
		Message: Message{
			Nickname:  nm.Nickname,
			Content:   nm.Content,
			ImageURL:  nm.ImageURL,
			AudioURL:  nm.AudioURL,
			ReplyTo:   nm.ReplyTo,
			CreatedAt: s.clock.Now(),
			UserID:    strPtr(s.self.ID),
		},
	})
	s.notify()

	server, err := s.backend.InsertMessage(ctx, nm)
	if !s.isMounted() {
		sent = err == nil
		return server, ErrUnmounted
	}
	if err != nil {
		s.store.ReconcileOptimistic(tempID, nil)
		s.notify()
		s.logger.Warn("send failed", zap.String("temp_id", tempID), zap.Error(err))
		return nil, networkErr("insert message", err)
	}
	s.store.ReconcileOptimistic(tempID, server)
	sent = true
	s.notify()
	return server, nil
}

func (s *Session) upload(ctx context.Context, dir string, a *Attachment) (string, error) {
	name := objectName(s.self.Nickname, s.clock.Now(), a.Name)
	url, err := s.backend.Upload(ctx, path.Join(dir, name), a.ContentType, a.Data)
	if err != nil {
		return "", networkErr("upload "+dir, err)
	}
	return url, nil
}

// objectName builds "<nickname>-<unix millis>-<random>.<ext>".
func objectName(nickname string, now time.Time, original string) string {
	ext := strings.TrimPrefix(path.Ext(original), ".")
	if ext == "" {
		ext = "bin"
	}
	nick := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, nickname)
	return fmt.Sprintf("%s-%d-%s.%s", nick, now.UnixMilli(), strings.Split(uuid.NewString(), "-")[0], ext)
}

// Delete removes one of the identity's own messages. The entry is flagged
// pending-delete during the round trip and dropped on success; a later
// realtime delete event for it is a no-op.
func (s *Session) Delete(ctx context.Context, id string) error {
	if !s.isMounted() {
		return ErrUnmounted
	}
	e, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if e.Pending {
		return &ValidationError{Reason: "message is still sending"}
	}
	if !e.Message.OwnedBy(s.self) {
		return &AuthorizationError{Action: "delete"}
	}

	s.store.MarkPendingDelete(id, true)
	s.notify()

	err := s.backend.DeleteMessage(ctx, id, s.self)
	if !s.isMounted() {
		return ErrUnmounted
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.store.MarkPendingDelete(id, false)
		s.notify()
		return networkErr("delete message", err)
	}
	s.store.Remove(id)
	s.notify()
	return nil
}
