package reaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "openchat/pkg/errors"
)

type Repository interface {
	ListByMessage(ctx context.Context, messageID string) ([]*Reaction, error)
	Get(ctx context.Context, messageID, userID string) (*Reaction, error)
	Upsert(ctx context.Context, r *Reaction) error
	Delete(ctx context.Context, messageID, userID string) (*Reaction, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// validIDs reports whether every id fits the uuid columns.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (r *repository) ListByMessage(ctx context.Context, messageID string) ([]*Reaction, error) {
	if !validIDs(messageID) {
		return nil, nil
	}
	var reactions []*Reaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *repository) Get(ctx context.Context, messageID, userID string) (*Reaction, error) {
	if !validIDs(messageID, userID) {
		return nil, apperrors.ErrNotFound
	}
	var reaction Reaction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Upsert keeps one row per (message, user). A second reaction replaces
// the kind in place and the stored row is read back into rec.
func (r *repository) Upsert(ctx context.Context, rec *Reaction) error {
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction_type", "nickname", "created_at"}),
		},
		clause.Returning{},
	).Create(rec).Error
}

func (r *repository) Delete(ctx context.Context, messageID, userID string) (*Reaction, error) {
	if !validIDs(messageID, userID) {
		return nil, apperrors.ErrNotFound
	}
	var deleted []*Reaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&deleted).Error
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return deleted[0], nil
}
