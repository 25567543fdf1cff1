package api

import (
	"net/http"
	"time"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionsHandler struct {
	sessions *service.SessionRepository
	logger   *zap.Logger
}

func NewSessionsHandler(sessions *service.SessionRepository, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type createSessionRequest struct {
	Interests   []domain.Interest   `json:"interests"`
	SocialLinks []domain.SocialLink `json:"socialLinks"`
	GifteeInfo  *domain.GifteeInfo  `json:"gifteeInfo"`
}

// Create starts a new gift session with a generated ID.
func (h *SessionsHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:   uuid.NewString(),
		Interests:   req.Interests,
		SocialLinks: req.SocialLinks,
		GifteeInfo:  req.GifteeInfo,
		Status:      domain.SessionStatusActive,
		ExpiresAt:   now.Add(constants.SessionConfig.DefaultLifetime),
	}

	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		respondError(c, h.logger, err, "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    session,
	})
}

// Get returns a session by ID, 404 when absent or expired.
func (h *SessionsHandler) Get(c *gin.Context) {
	sessionID := c.Param("sessionId")

	session, err := h.sessions.FindByID(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch session")
		return
	}
	if session == nil || session.IsExpired() {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

type updateSessionRequest struct {
	Interests   []domain.Interest    `json:"interests"`
	SocialLinks []domain.SocialLink  `json:"socialLinks"`
	GifteeInfo  *domain.GifteeInfo   `json:"gifteeInfo"`
	Status      domain.SessionStatus `json:"status"`
}

// Update rewrites the mutable parts of a session document.
func (h *SessionsHandler) Update(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()

	session, err := h.sessions.FindByID(ctx, sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch session")
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	if req.Interests != nil {
		session.Interests = req.Interests
	}
	if req.SocialLinks != nil {
		session.SocialLinks = req.SocialLinks
	}
	if req.GifteeInfo != nil {
		session.GifteeInfo = req.GifteeInfo
	}
	if req.Status != "" {
		switch req.Status {
		case domain.SessionStatusActive, domain.SessionStatusCompleted, domain.SessionStatusExpired:
			session.Status = req.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid session status",
			})
			return
		}
	}

	found, err := h.sessions.Update(ctx, session)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update session")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}

// Delete removes a session.
func (h *SessionsHandler) Delete(c *gin.Context) {
	sessionID := c.Param("sessionId")

	found, err := h.sessions.Delete(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to delete session")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session deleted",
	})
}
