package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/services"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type FlashcardHandler struct {
	flashcards services.FlashcardService
}

func NewFlashcardHandler(flashcards services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcards: flashcards}
}

func (h *FlashcardHandler) Create(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	var req types.CreateFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	card, err := h.flashcards.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, card)
}

func (h *FlashcardHandler) List(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	filter := types.FlashcardFilter{
		OnlyActive: c.Query("only_active") == "true",
	}
	if raw := c.Query("chat_session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid chat_session_id"))
			return
		}
		filter.ChatSessionID = &id
	}
	if raw := c.Query("source_message_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid source_message_id"))
			return
		}
		filter.SourceMessageID = &id
	}
	cards, err := h.flashcards.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cards)
}

func (h *FlashcardHandler) Update(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	cardID, ok := pathUUID(c, "flashcard_id")
	if !ok {
		return
	}
	var req types.UpdateFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	card, err := h.flashcards.Update(c.Request.Context(), userID, cardID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, card)
}

func (h *FlashcardHandler) Delete(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	cardID, ok := pathUUID(c, "flashcard_id")
	if !ok {
		return
	}
	if err := h.flashcards.Delete(c.Request.Context(), userID, cardID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
