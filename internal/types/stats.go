package types

import (
	"time"

	"github.com/google/uuid"
)

type OverviewStats struct {
	TotalFlashcards int64    `json:"total_flashcards"`
	TotalQuizzes    int      `json:"total_quizzes"`
	AverageScore    float64  `json:"average_score"`
	LastScore       *float64 `json:"last_score,omitempty"`
	RecentAccuracy  float64  `json:"recent_accuracy"`
	RecentAnswered  int      `json:"recent_answered"`
}

type ProgressPoint struct {
	QuizID       uuid.UUID `json:"quiz_id"`
	Title        string    `json:"title"`
	ScorePercent float64   `json:"score_percent"`
	CreatedAt    time.Time `json:"created_at"`
}

type FlashcardStat struct {
	FlashcardID  uuid.UUID  `json:"flashcard_id"`
	Question     string     `json:"question"`
	Attempts     int        `json:"attempts"`
	CorrectCount int        `json:"correct_count"`
	Accuracy     float64    `json:"accuracy"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty"`
}

type ExplanationResponse struct {
	QuestionID  uuid.UUID `json:"question_id"`
	Explanation string    `json:"explanation"`
}
