package reaction

import (
	"time"

	"openchat/internal/transcript"
)

// Reaction is one identity's reaction to one message.
type Reaction struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	MessageID string    `json:"message_id" gorm:"type:uuid;not null;uniqueIndex:idx_reaction_message_user,priority:1"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reaction_message_user,priority:2"`
	Nickname  string    `json:"nickname" gorm:"type:varchar(32)"`
	Kind      string    `json:"reaction_type" gorm:"column:reaction_type;type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (Reaction) TableName() string {
	return transcript.TableReactions
}

type ReactRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Kind     string `json:"reaction_type" binding:"required"`
}

type ReactionListResponse struct {
	Reactions []*Reaction `json:"reactions"`
}
