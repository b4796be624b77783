package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/types"
)

// FlashcardAttemptStats is the per-card aggregation across quiz questions.
type FlashcardAttemptStats struct {
	FlashcardID  uuid.UUID  `json:"flashcard_id"`
	Attempts     int        `json:"attempts"`
	CorrectCount int        `json:"correct_count"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty"`
}

type QuizRepo interface {
	CreateQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) error
	GetQuiz(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Quiz, error)
	ListByUserAsc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Quiz, error)
	SaveQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) error
	CreateQuestions(ctx context.Context, tx *gorm.DB, questions []types.QuizQuestion) error
	GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuizQuestion, error)
	ListQuestionsByQuiz(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) ([]types.QuizQuestion, error)
	SaveQuestion(ctx context.Context, tx *gorm.DB, question *types.QuizQuestion) error
	ListRecentAnswered(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.QuizQuestion, error)
	AttemptStatsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]FlashcardAttemptStats, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, log *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: log.With("repo", "quiz")}
}

func (r *quizRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *quizRepo) CreateQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) error {
	return r.conn(tx).WithContext(ctx).Create(quiz).Error
}

func (r *quizRepo) GetQuiz(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error) {
	var quiz types.Quiz
	if err := r.conn(tx).WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Quiz, error) {
	var quizzes []types.Quiz
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepo) ListByUserAsc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.Quiz, error) {
	var quizzes []types.Quiz
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepo) SaveQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) error {
	return r.conn(tx).WithContext(ctx).Save(quiz).Error
}

func (r *quizRepo) CreateQuestions(ctx context.Context, tx *gorm.DB, questions []types.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&questions).Error
}

func (r *quizRepo) GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuizQuestion, error) {
	var question types.QuizQuestion
	if err := r.conn(tx).WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *quizRepo) ListQuestionsByQuiz(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) ([]types.QuizQuestion, error) {
	var questions []types.QuizQuestion
	err := r.conn(tx).WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Find(&questions).Error
	return questions, err
}

func (r *quizRepo) SaveQuestion(ctx context.Context, tx *gorm.DB, question *types.QuizQuestion) error {
	return r.conn(tx).WithContext(ctx).Save(question).Error
}

func (r *quizRepo) ListRecentAnswered(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.QuizQuestion, error) {
	var questions []types.QuizQuestion
	err := r.conn(tx).WithContext(ctx).
		Joins("JOIN quizzes ON quizzes.id = quiz_questions.quiz_id").
		Where("quizzes.user_id = ? AND quiz_questions.user_answer IS NOT NULL", userID).
		Order("quiz_questions.updated_at DESC").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// AttemptStatsByUser aggregates in Go rather than SQL: MAX() over a
// timestamp column loses its type affinity on some drivers and refuses to
// scan back into *time.Time.
func (r *quizRepo) AttemptStatsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]FlashcardAttemptStats, error) {
	var questions []types.QuizQuestion
	err := r.conn(tx).WithContext(ctx).
		Joins("JOIN quizzes ON quizzes.id = quiz_questions.quiz_id").
		Where("quizzes.user_id = ? AND quiz_questions.user_answer IS NOT NULL", userID).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	byCard := make(map[uuid.UUID]*FlashcardAttemptStats, len(questions))
	order := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		stat, ok := byCard[q.FlashcardID]
		if !ok {
			stat = &FlashcardAttemptStats{FlashcardID: q.FlashcardID}
			byCard[q.FlashcardID] = stat
			order = append(order, q.FlashcardID)
		}
		stat.Attempts++
		if q.IsCorrect != nil && *q.IsCorrect {
			stat.CorrectCount++
		}
		if stat.LastAttempt == nil || q.UpdatedAt.After(*stat.LastAttempt) {
			at := q.UpdatedAt
			stat.LastAttempt = &at
		}
	}
	stats := make([]FlashcardAttemptStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byCard[id])
	}
	return stats, nil
}
