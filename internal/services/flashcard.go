package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type FlashcardService interface {
	Create(ctx context.Context, userID uuid.UUID, req types.CreateFlashcardRequest) (*types.Flashcard, error)
	List(ctx context.Context, userID uuid.UUID, filter types.FlashcardFilter) ([]types.Flashcard, error)
	Update(ctx context.Context, userID, cardID uuid.UUID, req types.UpdateFlashcardRequest) (*types.Flashcard, error)
	Delete(ctx context.Context, userID, cardID uuid.UUID) error
}

type flashcardService struct {
	flashcards repos.FlashcardRepo
	log        *logger.Logger
}

func NewFlashcardService(flashcards repos.FlashcardRepo, log *logger.Logger) FlashcardService {
	return &flashcardService{flashcards: flashcards, log: log.With("service", "flashcard")}
}

func (s *flashcardService) Create(ctx context.Context, userID uuid.UUID, req types.CreateFlashcardRequest) (*types.Flashcard, error) {
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	if question == "" || answer == "" {
		return nil, apierr.Validation("question and answer are required")
	}
	card := &types.Flashcard{
		ID:              uuid.New(),
		UserID:          userID,
		ChatSessionID:   req.ChatSessionID,
		SourceMessageID: req.SourceMessageID,
		Question:        question,
		Answer:          answer,
		IsActive:        true,
	}
	if err := s.flashcards.Create(ctx, nil, card); err != nil {
		return nil, apierr.Internal(err)
	}
	return card, nil
}

func (s *flashcardService) List(ctx context.Context, userID uuid.UUID, filter types.FlashcardFilter) ([]types.Flashcard, error) {
	cards, err := s.flashcards.ListByUser(ctx, nil, userID, filter)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return cards, nil
}

func (s *flashcardService) Update(ctx context.Context, userID, cardID uuid.UUID, req types.UpdateFlashcardRequest) (*types.Flashcard, error) {
	if req.Question == nil && req.Answer == nil && req.IsActive == nil {
		return nil, apierr.Validation("no fields to update")
	}
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if req.Question != nil {
		question := strings.TrimSpace(*req.Question)
		if question == "" {
			return nil, apierr.Validation("question cannot be empty")
		}
		card.Question = question
	}
	if req.Answer != nil {
		answer := strings.TrimSpace(*req.Answer)
		if answer == "" {
			return nil, apierr.Validation("answer cannot be empty")
		}
		card.Answer = answer
	}
	if req.IsActive != nil {
		card.IsActive = *req.IsActive
	}
	if err := s.flashcards.Save(ctx, nil, card); err != nil {
		return nil, apierr.Internal(err)
	}
	return card, nil
}

func (s *flashcardService) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return err
	}
	if err := s.flashcards.Delete(ctx, nil, card.ID); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *flashcardService) ownedCard(ctx context.Context, userID, cardID uuid.UUID) (*types.Flashcard, error) {
	card, err := s.flashcards.GetByID(ctx, nil, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("flashcard %s not found", cardID)
		}
		return nil, apierr.Internal(err)
	}
	if card.UserID != userID {
		return nil, apierr.Ownership("flashcard does not belong to caller")
	}
	return card, nil
}
