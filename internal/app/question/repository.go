package question

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "openchat/pkg/errors"
)

type Repository interface {
	Active(ctx context.Context) (*Question, error)
	GetByID(ctx context.Context, id string) (*Question, error)
	// Activate deactivates every question and stores next as the active one.
	Activate(ctx context.Context, next *Question) error
	// UpsertAnswer stores the user's answer and reports whether a new row
	// was created.
	UpsertAnswer(ctx context.Context, a *Answer) (bool, error)
	ListAnswers(ctx context.Context, questionID string) ([]*Answer, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Active(ctx context.Context) (*Question, error) {
	var q Question
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	var q Question
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) Activate(ctx context.Context, next *Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Question{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}
		next.IsActive = true
		return tx.Create(next).Error
	})
}

func (r *repository) UpsertAnswer(ctx context.Context, a *Answer) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Answer{}).
			Where("question_id = ? AND user_id = ?", a.QuestionID, a.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		inserted = existing == 0
		return tx.Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "question_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"answer_text", "answer_audio_url", "nickname", "updated_at"}),
			},
			clause.Returning{},
		).Create(a).Error
	})
	return inserted, err
}

func (r *repository) ListAnswers(ctx context.Context, questionID string) ([]*Answer, error) {
	var answers []*Answer
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}
