package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/http/middleware"
	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/services"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type KnowledgeSourceHandler struct {
	knowledge services.KnowledgeSourceService
}

func NewKnowledgeSourceHandler(knowledge services.KnowledgeSourceService) *KnowledgeSourceHandler {
	return &KnowledgeSourceHandler{knowledge: knowledge}
}

func (h *KnowledgeSourceHandler) List(c *gin.Context) {
	sync := c.Query("sync") == "true"
	sources, err := h.knowledge.List(c.Request.Context(), sync)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sources)
}

func (h *KnowledgeSourceHandler) Create(c *gin.Context) {
	var req types.CreateKnowledgeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	source, err := h.knowledge.Create(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, source)
}

func (h *KnowledgeSourceHandler) Update(c *gin.Context) {
	sourceID, ok := pathUUID(c, "source_id")
	if !ok {
		return
	}
	var req types.UpdateKnowledgeSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	source, err := h.knowledge.Update(c.Request.Context(), middleware.CallerID(c), sourceID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, source)
}

func (h *KnowledgeSourceHandler) Delete(c *gin.Context) {
	sourceID, ok := pathUUID(c, "source_id")
	if !ok {
		return
	}
	if err := h.knowledge.Delete(c.Request.Context(), middleware.CallerID(c), sourceID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func (h *KnowledgeSourceHandler) Reindex(c *gin.Context) {
	result, err := h.knowledge.Reindex(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (h *KnowledgeSourceHandler) Runtime(c *gin.Context) {
	response.RespondOK(c, h.knowledge.RuntimeConfig())
}
