// Package transcript keeps a client-side chat transcript consistent while
// records arrive from three directions: the initial bulk fetch, the
// realtime change feed, and the user's own optimistic actions.
//
// A Session is the mounted chat view. It owns one Store (the ordered,
// deduplicated transcript), one Feed (the realtime subscription) and a set
// of per-message Aggregators (reactions). Every path converges on the same
// identifier-keyed state, so no ordering between paths is assumed.
package transcript

import (
	"fmt"
	"strings"
	"time"
)

// Message is a chat record as the backend stores it.
type Message struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Content   *string   `json:"content"`
	ImageURL  *string   `json:"image_url"`
	AudioURL  *string   `json:"audio_url"`
	ReplyTo   *string   `json:"reply_to"`
	CreatedAt time.Time `json:"created_at"`
	UserID    *string   `json:"user_id"`
}

// Payload describes which parts of a message are populated. Text may
// accompany an image or audio clip as a caption.
type Payload struct {
	Text  bool
	Image bool
	Audio bool
}

func (m Message) Payload() Payload {
	return Payload{
		Text:  nonEmpty(m.Content),
		Image: nonEmpty(m.ImageURL),
		Audio: nonEmpty(m.AudioURL),
	}
}

// OwnedBy resolves authorship. Records written after the identity token
// was introduced carry user_id and only the token decides; older records
// carry only the nickname and fall back to a handle match.
func (m Message) OwnedBy(id Identity) bool {
	if nonEmpty(m.UserID) {
		return id.ID != "" && *m.UserID == id.ID
	}
	return m.Nickname != "" && m.Nickname == id.Nickname
}

// NewMessage is the insert payload for a send.
type NewMessage struct {
	Nickname string  `json:"nickname"`
	UserID   string  `json:"user_id,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	AudioURL *string `json:"audio_url,omitempty"`
	ReplyTo  *string `json:"reply_to,omitempty"`
}

// Identity is the client-held (identifier, display handle) pair.
type Identity struct {
	ID       string `json:"id" yaml:"id"`
	Nickname string `json:"nickname" yaml:"nickname"`
}

func (i Identity) Valid() bool {
	return i.ID != "" && i.Nickname != ""
}

// ReactionKind is one of a closed set of reactions.
type ReactionKind string

const (
	ReactionLove       ReactionKind = "love"
	ReactionGood       ReactionKind = "good"
	ReactionBad        ReactionKind = "bad"
	ReactionMotivation ReactionKind = "motivation"
	ReactionFire       ReactionKind = "fire"
)

// ReactionKinds lists the closed set in display order.
var ReactionKinds = []ReactionKind{
	ReactionLove,
	ReactionGood,
	ReactionBad,
	ReactionMotivation,
	ReactionFire,
}

func ParseReactionKind(s string) (ReactionKind, error) {
	k := ReactionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReactionKinds {
		if k == known {
			return k, nil
		}
	}
	return "", &ValidationError{Reason: fmt.Sprintf("unknown reaction %q", s)}
}

// Reaction is one identity's reaction to one message.
type Reaction struct {
	ID        string       `json:"id"`
	MessageID string       `json:"message_id"`
	UserID    string       `json:"user_id"`
	Nickname  string       `json:"nickname,omitempty"`
	Kind      ReactionKind `json:"reaction_type"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewReaction is the insert payload for a reaction.
type NewReaction struct {
	MessageID string       `json:"message_id"`
	UserID    string       `json:"user_id"`
	Kind      ReactionKind `json:"reaction_type"`
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

func strPtr(s string) *string {
	return &s
}
