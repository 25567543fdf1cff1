package api

import (
	"fmt"
	"net/http"

	"github.com/giftguru/gift-guru-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GiftsHandler struct {
	suggester *service.SuggestionService
	logger    *zap.Logger
}

func NewGiftsHandler(suggester *service.SuggestionService, logger *zap.Logger) *GiftsHandler {
	return &GiftsHandler{
		suggester: suggester,
		logger:    logger,
	}
}

type suggestionsRequest struct {
	SessionID string   `json:"sessionId" binding:"required"`
	AgeGroup  string   `json:"ageGroup" binding:"required"`
	Interests []string `json:"interests" binding:"required,min=1"`
	Budget    float64  `json:"budget" binding:"required,gt=0"`
	Force     bool     `json:"force"`
}

// GetSuggestions serves gift suggestions, cache-first unless force is set.
func (h *GiftsHandler) GetSuggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	suggestions, source, err := h.suggester.GetSuggestionsCached(
		c.Request.Context(), req.SessionID, req.AgeGroup, req.Interests, req.Budget, req.Force)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get gift suggestions")
		return
	}

	h.logger.Info("Served gift suggestions",
		zap.String("session_id", req.SessionID),
		zap.String("source", source),
		zap.Int("count", len(suggestions)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    suggestions,
		"source":  source,
	})
}

// ClearCache drops every cached suggestion list for the session.
func (h *GiftsHandler) ClearCache(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Session ID is required",
		})
		return
	}

	cleared, err := h.suggester.ClearCache(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to clear cache")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Cleared %d cached suggestions", cleared),
	})
}
