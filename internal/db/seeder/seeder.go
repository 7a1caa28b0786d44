package seeder

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"openchat/internal/app/question"
)

type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedFirstQuestion(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

// seedFirstQuestion activates the first bank entry on an empty table.
// Later questions are created by the rotation job.
func (s *Seeder) seedFirstQuestion() error {
	var count int64
	if err := s.db.Model(&question.Question{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Daily questions already exist, skipping seed")
		return nil
	}

	now := time.Now().UTC()
	first := question.Bank[0]
	q := question.Question{
		ID:           uuid.NewString(),
		Text:         first.English,
		TextSomali:   first.Somali,
		QuestionDate: now.Format(time.DateOnly),
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.db.Create(&q).Error; err != nil {
		return err
	}

	s.logger.Info("Seeded first daily question", zap.String("id", q.ID))
	return nil
}
