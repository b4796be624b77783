package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

const recentAccuracyWindow = 10

type StatsService interface {
	Overview(ctx context.Context, userID uuid.UUID) (*types.OverviewStats, error)
	Progress(ctx context.Context, userID uuid.UUID) ([]types.ProgressPoint, error)
	FlashcardStats(ctx context.Context, userID uuid.UUID) ([]types.FlashcardStat, error)
	ExplainQuestion(ctx context.Context, callerID uuid.UUID, callerRole string, questionID uuid.UUID) (*types.ExplanationResponse, error)
}

type statsService struct {
	quizzes    repos.QuizRepo
	flashcards repos.FlashcardRepo
	generation GenerationService
	log        *logger.Logger
}

func NewStatsService(
	quizzes repos.QuizRepo,
	flashcards repos.FlashcardRepo,
	generation GenerationService,
	log *logger.Logger,
) StatsService {
	return &statsService{
		quizzes:    quizzes,
		flashcards: flashcards,
		generation: generation,
		log:        log.With("service", "stats"),
	}
}

func (s *statsService) Overview(ctx context.Context, userID uuid.UUID) (*types.OverviewStats, error) {
	cardCount, err := s.flashcards.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	quizzes, err := s.quizzes.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	stats := &types.OverviewStats{
		TotalFlashcards: cardCount,
		TotalQuizzes:    len(quizzes),
	}
	if len(quizzes) > 0 {
		sum := 0.0
		for _, quiz := range quizzes {
			sum += quiz.ScorePercent
		}
		stats.AverageScore = sum / float64(len(quizzes))
		// ListByUser orders by created_at desc, so the first row is the
		// latest quiz.
		last := quizzes[0].ScorePercent
		stats.LastScore = &last
	}
	recent, err := s.quizzes.ListRecentAnswered(ctx, nil, userID, recentAccuracyWindow)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	stats.RecentAnswered = len(recent)
	if len(recent) > 0 {
		correct := 0
		for _, q := range recent {
			if q.IsCorrect != nil && *q.IsCorrect {
				correct++
			}
		}
		stats.RecentAccuracy = float64(correct) / float64(len(recent)) * 100
	}
	return stats, nil
}

func (s *statsService) Progress(ctx context.Context, userID uuid.UUID) ([]types.ProgressPoint, error) {
	quizzes, err := s.quizzes.ListByUserAsc(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	points := make([]types.ProgressPoint, 0, len(quizzes))
	for _, quiz := range quizzes {
		points = append(points, types.ProgressPoint{
			QuizID:       quiz.ID,
			Title:        quiz.Title,
			ScorePercent: quiz.ScorePercent,
			CreatedAt:    quiz.CreatedAt,
		})
	}
	return points, nil
}

func (s *statsService) FlashcardStats(ctx context.Context, userID uuid.UUID) ([]types.FlashcardStat, error) {
	cards, err := s.flashcards.ListByUser(ctx, nil, userID, types.FlashcardFilter{})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	attempts, err := s.quizzes.AttemptStatsByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	byCard := make(map[uuid.UUID]repos.FlashcardAttemptStats, len(attempts))
	for _, a := range attempts {
		byCard[a.FlashcardID] = a
	}
	stats := make([]types.FlashcardStat, 0, len(cards))
	for _, card := range cards {
		stat := types.FlashcardStat{
			FlashcardID: card.ID,
			Question:    card.Question,
		}
		if a, ok := byCard[card.ID]; ok {
			stat.Attempts = a.Attempts
			stat.CorrectCount = a.CorrectCount
			stat.LastAttempt = a.LastAttempt
			if a.Attempts > 0 {
				stat.Accuracy = float64(a.CorrectCount) / float64(a.Attempts) * 100
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (s *statsService) ExplainQuestion(ctx context.Context, callerID uuid.UUID, callerRole string, questionID uuid.UUID) (*types.ExplanationResponse, error) {
	question, err := s.quizzes.GetQuestion(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("question %s not found", questionID)
		}
		return nil, apierr.Internal(err)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, nil, question.QuizID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if quiz.UserID != callerID && types.NormalizeRole(callerRole) != types.RoleAdmin {
		return nil, apierr.Ownership("question does not belong to caller")
	}
	prompt := fmt.Sprintf("Question: %s\nCorrect answer: %s", question.QuestionText, question.CorrectAnswer)
	if question.UserAnswer != nil && *question.UserAnswer != "" {
		prompt += "\nStudent answered: " + *question.UserAnswer
	}
	text, err := s.generation.GenerateExplanation(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &types.ExplanationResponse{QuestionID: question.ID, Explanation: text}, nil
}
