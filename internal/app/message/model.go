package message

import (
	"time"

	"openchat/internal/transcript"
)

// Message is a chat row. JSON matches the record the realtime feed carries.
type Message struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Nickname  string    `json:"nickname" gorm:"type:varchar(32);not null;index"`
	Content   *string   `json:"content" gorm:"type:text"`
	ImageURL  *string   `json:"image_url" gorm:"type:text"`
	AudioURL  *string   `json:"audio_url" gorm:"type:text"`
	ReplyTo   *string   `json:"reply_to" gorm:"type:uuid;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UserID    *string   `json:"user_id" gorm:"type:uuid;index"`
}

func (Message) TableName() string {
	return transcript.TableMessages
}

func (m *Message) Transcript() transcript.Message {
	return transcript.Message{
		ID:        m.ID,
		Nickname:  m.Nickname,
		Content:   m.Content,
		ImageURL:  m.ImageURL,
		AudioURL:  m.AudioURL,
		ReplyTo:   m.ReplyTo,
		CreatedAt: m.CreatedAt,
		UserID:    m.UserID,
	}
}

type CreateMessageRequest struct {
	Nickname string  `json:"nickname"`
	UserID   string  `json:"user_id"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
	AudioURL *string `json:"audio_url"`
	ReplyTo  *string `json:"reply_to"`
}

type DeleteMessageRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// DeleteKind selects which of an author's messages a bulk delete removes.
type DeleteKind string

const (
	DeleteAll    DeleteKind = "all"
	DeleteImages DeleteKind = "images"
	DeleteAudio  DeleteKind = "audio"
)

func ParseDeleteKind(s string) (DeleteKind, bool) {
	switch DeleteKind(s) {
	case "", DeleteAll:
		return DeleteAll, true
	case DeleteImages, DeleteAudio:
		return DeleteKind(s), true
	}
	return "", false
}

type MessageCounts struct {
	Total  int64 `json:"total"`
	Text   int64 `json:"text"`
	Images int64 `json:"images"`
	Audio  int64 `json:"audio"`
}

type MessageListResponse struct {
	Messages []*Message `json:"messages"`
}

type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}
