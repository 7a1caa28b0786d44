package question

import "time"

// RotationAge is how long a question stays active.
const RotationAge = 24 * time.Hour

const TableAnswers = "daily_question_answers"

type Question struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Text         string    `json:"question_text" gorm:"column:question_text;type:text;not null"`
	TextSomali   string    `json:"question_somali" gorm:"column:question_somali;type:text"`
	QuestionDate string    `json:"question_date" gorm:"type:date;not null"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:false;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;index"`
}

func (Question) TableName() string {
	return "daily_questions"
}

type Answer struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID     string    `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_answer_question_user,priority:1"`
	UserID         string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_answer_question_user,priority:2"`
	Nickname       string    `json:"nickname" gorm:"type:varchar(32)"`
	AnswerText     *string   `json:"answer_text" gorm:"type:text"`
	AnswerAudioURL *string   `json:"answer_audio_url" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null"`
}

func (Answer) TableName() string {
	return TableAnswers
}

type AnswerRequest struct {
	UserID         string  `json:"user_id"`
	Nickname       string  `json:"nickname"`
	AnswerText     *string `json:"answer_text"`
	AnswerAudioURL *string `json:"answer_audio_url"`
}

type CurrentResponse struct {
	Question       *Question `json:"question"`
	NextRotationAt time.Time `json:"next_rotation_at"`
}

type AnswerListResponse struct {
	Answers []*Answer `json:"answers"`
}
