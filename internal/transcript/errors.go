package transcript

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNotFound  = errors.New("message not found")
	ErrUnmounted = errors.New("session is not mounted")
)

// ValidationError rejects a draft or argument locally. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// RateLimitError rejects a send issued inside the cooldown window.
type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("please wait %d seconds", secs)
}

// NetworkError wraps a failed round trip to the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthorizationError rejects an action on a record the identity does not
// own. Reason carries the server's wording when the action is not a
// message delete.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Action == "" {
		if e.Reason == "" {
			return "not allowed"
		}
		return e.Reason
	}
	return fmt.Sprintf("you can only %s your own messages", e.Action)
}

// SubscriptionError reports a dropped push channel.
type SubscriptionError struct {
	Table string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s dropped: %v", e.Table, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// networkErr keeps typed errors from the backend (validation, rate limit,
// authorization) as they are and wraps everything else.
func networkErr(op string, err error) error {
	var (
		ve *ValidationError
		re *RateLimitError
		ae *AuthorizationError
	)
	if errors.As(err, &ve) || errors.As(err, &re) || errors.As(err, &ae) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}
