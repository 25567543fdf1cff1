package api

import (
	"net/http"

	apperrors "github.com/giftguru/gift-guru-go/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps an error to the JSON error envelope, using the
// application error's status code when it carries one.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallbackMessage string) {
	status := http.StatusInternalServerError
	message := fallbackMessage

	if appErr, ok := apperrors.AsAppError(err); ok && appErr.StatusCode > 0 {
		status = appErr.StatusCode
		if status < http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	)

	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
