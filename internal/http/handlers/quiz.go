package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/http/middleware"
	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/services"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type QuizHandler struct {
	quizzes services.QuizService
}

func NewQuizHandler(quizzes services.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) Create(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	var req types.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	result, err := h.quizzes.CreateFromFlashcards(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

func (h *QuizHandler) CreateAutoMCQ(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	var req types.AutoMCQQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	result, err := h.quizzes.CreateAutoMCQ(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

func (h *QuizHandler) List(c *gin.Context) {
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	quizzes, err := h.quizzes.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, quizzes)
}

func (h *QuizHandler) Get(c *gin.Context) {
	quizID, ok := pathUUID(c, "quiz_id")
	if !ok {
		return
	}
	result, err := h.quizzes.Get(c.Request.Context(), middleware.CallerID(c), middleware.CallerRole(c), quizID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *QuizHandler) AnswerQuestion(c *gin.Context) {
	quizID, ok := pathUUID(c, "quiz_id")
	if !ok {
		return
	}
	questionID, ok := pathUUID(c, "question_id")
	if !ok {
		return
	}
	var req types.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	result, err := h.quizzes.AnswerQuestion(
		c.Request.Context(), middleware.CallerID(c), middleware.CallerRole(c), quizID, questionID, req.Answer)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
