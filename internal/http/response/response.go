package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: message, Code: code}})
}

// RespondAPIError maps a service error onto the wire envelope. Anything that
// is not an *apierr.Error becomes an opaque 500.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.Wrap(err)
	message := ae.Code
	if ae.Status != http.StatusInternalServerError && ae.Err != nil {
		message = ae.Err.Error()
	}
	RespondError(c, ae.Status, ae.Code, message)
}
