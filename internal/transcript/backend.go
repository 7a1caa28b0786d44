package transcript

import (
	"context"
	"encoding/json"
	"time"
)

// Tables the session subscribes to.
const (
	TableMessages  = "messages"
	TableReactions = "message_reactions"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is one row-level notification from the push channel. New is set
// for inserts and updates, Old for deletes (it carries at least the id).
type Change struct {
	Table           string          `json:"table"`
	Type            ChangeType      `json:"type"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// ChangeHandler receives changes in channel-delivery order. A backend must
// invoke it from a single goroutine per subscription.
type ChangeHandler func(Change)

// Subscription is a live handle on a push channel.
type Subscription interface {
	// Ready is closed once the server acknowledged the subscription.
	Ready() <-chan struct{}
	// Err receives at most one value when the channel drops.
	Err() <-chan error
	Unsubscribe() error
}

// Backend is the row-store plus pub/sub service the transcript consumes.
type Backend interface {
	// FetchMessages returns the most recent limit messages, oldest first.
	FetchMessages(ctx context.Context, limit int) ([]Message, error)
	InsertMessage(ctx context.Context, msg NewMessage) (*Message, error)
	DeleteMessage(ctx context.Context, id string, as Identity) error
	Subscribe(ctx context.Context, table string, handler ChangeHandler) (Subscription, error)
	// Upload stores data under path and returns a URL that can be
	// referenced from a message.
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	FetchReactions(ctx context.Context, messageID string) ([]Reaction, error)
	InsertReaction(ctx context.Context, r NewReaction) (*Reaction, error)
	DeleteReaction(ctx context.Context, messageID, userID string) error
}
