package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/http/middleware"
	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Overview(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	result, err := h.stats.Overview(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *StatsHandler) Progress(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	result, err := h.stats.Progress(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *StatsHandler) FlashcardStats(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	result, err := h.stats.FlashcardStats(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *StatsHandler) ExplainQuestion(c *gin.Context) {
	questionID, ok := pathUUID(c, "question_id")
	if !ok {
		return
	}
	result, err := h.stats.ExplainQuestion(
		c.Request.Context(), middleware.CallerID(c), middleware.CallerRole(c), questionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
