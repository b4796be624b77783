package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/services"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	var req types.CreateChatSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	session, err := h.chat.CreateSession(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	sessions, err := h.chat.ListSessions(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sessions)
}

func (h *ChatHandler) RenameSession(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chat_id")
	if !ok {
		return
	}
	var req types.RenameChatSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	session, err := h.chat.RenameSession(c.Request.Context(), userID, chatID, req.Title)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chat_id")
	if !ok {
		return
	}
	if err := h.chat.DeleteSession(c.Request.Context(), userID, chatID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chat_id")
	if !ok {
		return
	}
	messages, err := h.chat.ListMessages(c.Request.Context(), userID, chatID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, messages)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chat_id")
	if !ok {
		return
	}
	var req types.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	result, err := h.chat.SendMessage(c.Request.Context(), userID, chatID, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
