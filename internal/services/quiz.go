package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type QuizService interface {
	CreateFromFlashcards(ctx context.Context, userID uuid.UUID, req types.CreateQuizRequest) (*types.QuizWithQuestions, error)
	CreateAutoMCQ(ctx context.Context, userID uuid.UUID, req types.AutoMCQQuizRequest) (*types.QuizWithQuestions, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Quiz, error)
	Get(ctx context.Context, callerID uuid.UUID, callerRole string, quizID uuid.UUID) (*types.QuizWithQuestions, error)
	AnswerQuestion(ctx context.Context, callerID uuid.UUID, callerRole string, quizID, questionID uuid.UUID, answer string) (*types.AnswerQuestionResponse, error)
}

type quizService struct {
	db         *gorm.DB
	quizzes    repos.QuizRepo
	flashcards repos.FlashcardRepo
	generation GenerationService
	log        *logger.Logger
}

func NewQuizService(
	db *gorm.DB,
	quizzes repos.QuizRepo,
	flashcards repos.FlashcardRepo,
	generation GenerationService,
	log *logger.Logger,
) QuizService {
	return &quizService{
		db:         db,
		quizzes:    quizzes,
		flashcards: flashcards,
		generation: generation,
		log:        log.With("service", "quiz"),
	}
}

func (s *quizService) CreateFromFlashcards(ctx context.Context, userID uuid.UUID, req types.CreateQuizRequest) (*types.QuizWithQuestions, error) {
	cards, err := s.loadOwnedFlashcards(ctx, userID, req.FlashcardIDs)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Flashcard Quiz"
	}
	quiz := &types.Quiz{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		SourceType: types.QuizSourceFlashcards,
	}
	questions := make([]types.QuizQuestion, 0, len(cards))
	for i, card := range cards {
		questions = append(questions, types.QuizQuestion{
			ID:            uuid.New(),
			QuizID:        quiz.ID,
			FlashcardID:   card.ID,
			QuestionText:  card.Question,
			CorrectAnswer: card.Answer,
			OrderIndex:    i + 1,
		})
	}
	if err := s.persistQuiz(ctx, quiz, questions); err != nil {
		return nil, err
	}
	return &types.QuizWithQuestions{Quiz: *quiz, Questions: questions}, nil
}

func (s *quizService) CreateAutoMCQ(ctx context.Context, userID uuid.UUID, req types.AutoMCQQuizRequest) (*types.QuizWithQuestions, error) {
	cards, err := s.loadOwnedFlashcards(ctx, userID, req.FlashcardIDs)
	if err != nil {
		return nil, err
	}
	plan, err := s.generation.MCQPlan(ctx, cards, strings.TrimSpace(req.Title))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.Flashcard, len(cards))
	for _, card := range cards {
		byID[card.ID.String()] = card
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(plan.Title)
	}
	if title == "" {
		title = "Practice Quiz"
	}
	quiz := &types.Quiz{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		SourceType: types.QuizSourceAutoMCQ,
	}
	questions := make([]types.QuizQuestion, 0, len(plan.Questions))
	for i, q := range plan.Questions {
		card := byID[q.FlashcardID]
		payload, merr := json.Marshal(types.MCQPayload{
			Options:      q.Options,
			CorrectLabel: q.CorrectLabel,
		})
		if merr != nil {
			return nil, apierr.Internal(merr)
		}
		questions = append(questions, types.QuizQuestion{
			ID:            uuid.New(),
			QuizID:        quiz.ID,
			FlashcardID:   card.ID,
			QuestionText:  q.Question,
			CorrectAnswer: card.Answer,
			OrderIndex:    i + 1,
			MCQOptions:    datatypes.JSON(payload),
		})
	}
	if err := s.persistQuiz(ctx, quiz, questions); err != nil {
		return nil, err
	}
	return &types.QuizWithQuestions{Quiz: *quiz, Questions: questions}, nil
}

func (s *quizService) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Quiz, error) {
	quizzes, err := s.quizzes.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return quizzes, nil
}

func (s *quizService) Get(ctx context.Context, callerID uuid.UUID, callerRole string, quizID uuid.UUID) (*types.QuizWithQuestions, error) {
	quiz, err := s.ownedQuiz(ctx, callerID, callerRole, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestionsByQuiz(ctx, nil, quiz.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &types.QuizWithQuestions{Quiz: *quiz, Questions: questions}, nil
}

func (s *quizService) AnswerQuestion(ctx context.Context, callerID uuid.UUID, callerRole string, quizID, questionID uuid.UUID, answer string) (*types.AnswerQuestionResponse, error) {
	question, err := s.quizzes.GetQuestion(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("question %s not found", questionID)
		}
		return nil, apierr.Internal(err)
	}
	quiz, err := s.ownedQuiz(ctx, callerID, callerRole, quizID)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quiz.ID {
		return nil, apierr.Mismatch("question does not belong to quiz %s", quizID)
	}

	submitted := strings.TrimSpace(answer)
	correct := s.isCorrect(question, submitted)
	question.UserAnswer = &submitted
	question.IsCorrect = &correct

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.quizzes.SaveQuestion(ctx, tx, question); err != nil {
			return err
		}
		return s.recomputeScore(ctx, tx, quiz)
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &types.AnswerQuestionResponse{Question: *question, Quiz: *quiz}, nil
}

// isCorrect grades a submission against the stored answer text: trimmed
// exact match, case-sensitive, for every question kind.
func (s *quizService) isCorrect(question *types.QuizQuestion, submitted string) bool {
	return submitted == strings.TrimSpace(question.CorrectAnswer)
}

// recomputeScore rebuilds the quiz counters from the live question rows.
// Always a full scan: incremental bookkeeping drifts, this cannot.
func (s *quizService) recomputeScore(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) error {
	questions, err := s.quizzes.ListQuestionsByQuiz(ctx, tx, quiz.ID)
	if err != nil {
		return err
	}
	total := len(questions)
	correct := 0
	for _, q := range questions {
		if q.IsCorrect != nil && *q.IsCorrect {
			correct++
		}
	}
	quiz.TotalQuestions = total
	quiz.CorrectAnswers = correct
	if total > 0 {
		quiz.ScorePercent = float64(correct) / float64(total) * 100
	} else {
		quiz.ScorePercent = 0
	}
	return s.quizzes.SaveQuiz(ctx, tx, quiz)
}

func (s *quizService) persistQuiz(ctx context.Context, quiz *types.Quiz, questions []types.QuizQuestion) error {
	quiz.TotalQuestions = len(questions)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.quizzes.CreateQuiz(ctx, tx, quiz); err != nil {
			return err
		}
		return s.quizzes.CreateQuestions(ctx, tx, questions)
	})
	if err != nil {
		return apierr.Internal(err)
	}
	return nil
}

// loadOwnedFlashcards dedupes the requested ids preserving order and loads
// them scoped to the user. Any id that resolves to nothing (missing or owned
// by someone else) fails the whole request.
func (s *quizService) loadOwnedFlashcards(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]types.Flashcard, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	if len(ordered) == 0 {
		return nil, apierr.Validation("flashcard_ids is required")
	}
	cards, err := s.flashcards.ListByIDs(ctx, nil, userID, ordered)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(cards) != len(ordered) {
		return nil, apierr.Ownership("one or more flashcards are missing or not yours")
	}
	byID := make(map[uuid.UUID]types.Flashcard, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}
	result := make([]types.Flashcard, 0, len(ordered))
	for _, id := range ordered {
		result = append(result, byID[id])
	}
	return result, nil
}

func (s *quizService) ownedQuiz(ctx context.Context, callerID uuid.UUID, callerRole string, quizID uuid.UUID) (*types.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, nil, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("quiz %s not found", quizID)
		}
		return nil, apierr.Internal(err)
	}
	if quiz.UserID != callerID && types.NormalizeRole(callerRole) != types.RoleAdmin {
		return nil, apierr.Ownership("quiz does not belong to caller")
	}
	return quiz, nil
}
