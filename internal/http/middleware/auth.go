package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studybridge-backend/internal/http/response"
	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/studybridge-backend/internal/services"
	"github.com/yungbote/studybridge-backend/internal/types"
)

const (
	ContextUserID = "auth_user_id"
	ContextRole   = "auth_role"
)

// RequireAuth resolves the bearer token into a request identity. Requests
// without a valid token never reach a handler.
func RequireAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		ctx := ctxutil.WithRequestData(c.Request.Context(), ctxutil.RequestData{
			UserID: claims.UserID.String(),
			Role:   claims.Role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != types.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorEnvelope{
				Error: response.APIError{Message: "admin access required", Code: apierr.CodeOwnership},
			})
			return
		}
		c.Next()
	}
}

// RequirePathUser guards /users/:user_id subtrees: the path user must be the
// caller, unless the caller is an admin.
func RequirePathUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		pathID, err := uuid.Parse(c.Param("user_id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorEnvelope{
				Error: response.APIError{Message: "invalid user id", Code: apierr.CodeValidation},
			})
			return
		}
		if pathID != CallerID(c) && CallerRole(c) != types.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorEnvelope{
				Error: response.APIError{Message: "cannot act on another user", Code: apierr.CodeOwnership},
			})
			return
		}
		c.Next()
	}
}

func CallerID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func CallerRole(c *gin.Context) string {
	if v, ok := c.Get(ContextRole); ok {
		if role, ok := v.(string); ok {
			return types.NormalizeRole(role)
		}
	}
	return types.RoleUser
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorEnvelope{
		Error: response.APIError{Message: message, Code: apierr.CodeUnauthorized},
	})
}
