package api

import (
	"context"
	"net/http"

	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SocialDataReader is the slice of the cache layer the social handler
// reads from directly.
type SocialDataReader interface {
	GetSocialData(ctx context.Context, sessionID string) (*domain.SocialDataCache, error)
	DeleteSocialData(ctx context.Context, sessionID string) error
}

type SocialHandler struct {
	scraper *service.SocialScraperService
	cache   SocialDataReader
	logger  *zap.Logger
}

func NewSocialHandler(scraper *service.SocialScraperService, cache SocialDataReader, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		scraper: scraper,
		cache:   cache,
		logger:  logger,
	}
}

type scrapeRequest struct {
	SessionID       string `json:"sessionId" binding:"required"`
	InstagramUserID string `json:"instagramUserId" binding:"required"`
	Force           bool   `json:"force"`
}

// Scrape runs the social ingestion pipeline and returns the resulting
// aggregate. A warm cache short-circuits the fetch unless force is set.
func (h *SocialHandler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()

	if !req.Force {
		cached, err := h.cache.GetSocialData(ctx, req.SessionID)
		if err == nil && cached != nil {
			h.logger.Info("Serving cached social data",
				zap.String("session_id", req.SessionID))
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    cached,
				"source":  domain.SourceCache,
			})
			return
		}
	}

	if err := h.scraper.ScrapeAndAnalyze(ctx, req.SessionID, req.InstagramUserID, req.Force); err != nil {
		respondError(c, h.logger, err, "Failed to scrape social media data")
		return
	}

	data, err := h.cache.GetSocialData(ctx, req.SessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to read scraped data")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"source":  domain.SourceFresh,
	})
}

// GetCachedData returns the cached aggregate for a session, 404 when absent.
func (h *SocialHandler) GetCachedData(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Session ID is required",
		})
		return
	}

	data, err := h.cache.GetSocialData(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch cached social data")
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "No cached data found for this session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ClearCache drops the cached social aggregate for a session.
func (h *SocialHandler) ClearCache(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Session ID is required",
		})
		return
	}

	if err := h.cache.DeleteSocialData(c.Request.Context(), sessionID); err != nil {
		respondError(c, h.logger, err, "Failed to clear cache")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
