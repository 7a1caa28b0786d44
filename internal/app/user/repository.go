package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "openchat/pkg/errors"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByNickname(ctx context.Context, nickname string) (*User, error)
	TouchActive(ctx context.Context, id string, at time.Time) error
	ListMembers(ctx context.Context, limit int) ([]*User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrNicknameTaken
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	return r.first(ctx, "nickname = ?", nickname)
}

func (r *repository) first(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) TouchActive(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("last_active", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, limit int) ([]*User, error) {
	var users []*User
	err := r.db.WithContext(ctx).Order("last_active DESC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
