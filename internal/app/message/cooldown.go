package message

import (
	"fmt"
	"time"

	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

// CooldownError rejects a send inside the per-identity cooldown window.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("please wait %d seconds before sending another message", secs)
}

func (e *CooldownError) Unwrap() error {
	return apperrors.ErrTooManyRequests
}

func (e *CooldownError) RetryAfter() time.Duration {
	return e.Remaining
}

func cooldownKey(who transcript.Identity) string {
	if who.ID != "" {
		return "cooldown:send:id:" + who.ID
	}
	return "cooldown:send:nick:" + who.Nickname
}
