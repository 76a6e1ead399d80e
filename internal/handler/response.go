package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "countdown/backend/internal/errors"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.JSON(apperrors.Render(apiErr))
}

// bindJSON decodes the request body into dest and answers 400 when it cannot.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return false
	}
	return true
}
