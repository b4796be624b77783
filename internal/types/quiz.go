package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	QuizSourceFlashcards = "flashcards"
	QuizSourceAutoMCQ    = "auto_mcq"
)

type Quiz struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Title               string     `gorm:"not null" json:"title"`
	SourceType          string     `gorm:"not null" json:"source_type"`
	SourceChatSessionID *uuid.UUID `gorm:"type:uuid" json:"source_chat_session_id,omitempty"`
	TotalQuestions      int        `gorm:"not null;default:0" json:"total_questions"`
	CorrectAnswers      int        `gorm:"not null;default:0" json:"correct_answers"`
	ScorePercent        float64    `gorm:"not null;default:0" json:"score_percent"`
	DurationSeconds     *int       `json:"duration_seconds,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Quiz) TableName() string { return "quizzes" }

type QuizQuestion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"quiz_id"`
	FlashcardID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"flashcard_id"`
	QuestionText  string         `gorm:"not null" json:"question_text"`
	CorrectAnswer string         `gorm:"not null" json:"correct_answer"`
	UserAnswer    *string        `json:"user_answer,omitempty"`
	IsCorrect     *bool          `json:"is_correct,omitempty"`
	OrderIndex    int            `gorm:"not null" json:"order_index"`
	MCQOptions    datatypes.JSON `gorm:"column:mcq_options" json:"mcq_options,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

// MCQPayload is the shape stored in a question's mcq_options column.
type MCQPayload struct {
	Options      []MCQOption `json:"options"`
	CorrectLabel string      `json:"correct_label"`
}

type MCQOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type CreateQuizRequest struct {
	Title        string      `json:"title"`
	FlashcardIDs []uuid.UUID `json:"flashcard_ids" binding:"required"`
}

type AutoMCQQuizRequest struct {
	Title        string      `json:"title"`
	FlashcardIDs []uuid.UUID `json:"flashcard_ids" binding:"required"`
}

type AnswerQuestionRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type QuizWithQuestions struct {
	Quiz      Quiz           `json:"quiz"`
	Questions []QuizQuestion `json:"questions"`
}

type AnswerQuestionResponse struct {
	Question QuizQuestion `json:"question"`
	Quiz     Quiz         `json:"quiz"`
}
