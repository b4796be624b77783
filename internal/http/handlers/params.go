package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
)

// pathUUID parses a uuid path param, writing the 400 itself on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}
