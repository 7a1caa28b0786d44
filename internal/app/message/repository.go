package message

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openchat/internal/transcript"
	apperrors "openchat/pkg/errors"
)

type Repository interface {
	ListRecent(ctx context.Context, limit int) ([]*Message, error)
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	Delete(ctx context.Context, ids ...string) error
	ListByAuthor(ctx context.Context, who transcript.Identity, kind DeleteKind) ([]*Message, error)
	CountByAuthor(ctx context.Context, who transcript.Identity) (*MessageCounts, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*Message, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]*Message, error) {
	var messages []*Message
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *repository) Create(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetByID reports ErrNotFound for ids that cannot name a row.
func (r *repository) GetByID(ctx context.Context, id string) (*Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	var msg Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete removes messages together with their reactions.
func (r *repository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+transcript.TableReactions+" WHERE message_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&Message{}).Error
	})
}

// authoredBy applies the ownership rule in SQL: rows with a user_id
// belong to that id, older rows without one belong to the nickname.
func authoredBy(db *gorm.DB, who transcript.Identity) *gorm.DB {
	switch {
	case who.ID != "" && who.Nickname != "":
		return db.Where("(user_id = ?) OR (user_id IS NULL AND nickname = ?)", who.ID, who.Nickname)
	case who.ID != "":
		return db.Where("user_id = ?", who.ID)
	default:
		return db.Where("user_id IS NULL AND nickname = ?", who.Nickname)
	}
}

func (r *repository) ListByAuthor(ctx context.Context, who transcript.Identity, kind DeleteKind) ([]*Message, error) {
	q := authoredBy(r.db.WithContext(ctx).Model(&Message{}), who)
	switch kind {
	case DeleteImages:
		q = q.Where("image_url IS NOT NULL AND image_url <> ''")
	case DeleteAudio:
		q = q.Where("audio_url IS NOT NULL AND audio_url <> ''")
	}

	var messages []*Message
	if err := q.Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) CountByAuthor(ctx context.Context, who transcript.Identity) (*MessageCounts, error) {
	var counts MessageCounts
	err := authoredBy(r.db.WithContext(ctx).Model(&Message{}), who).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE content IS NOT NULL AND content <> '') AS text,
			COUNT(*) FILTER (WHERE image_url IS NOT NULL AND image_url <> '') AS images,
			COUNT(*) FILTER (WHERE audio_url IS NOT NULL AND audio_url <> '') AS audio`).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *repository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*Message, error) {
	var messages []*Message
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
