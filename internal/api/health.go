package api

import (
	"context"
	"net/http"
	"time"

	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/gin-gonic/gin"
)

type cachePinger interface {
	IsConnected(ctx context.Context) bool
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	cache cachePinger
	db    dbPinger
}

func NewHealthHandler(cache cachePinger, db dbPinger) *HealthHandler {
	return &HealthHandler{
		cache: cache,
		db:    db,
	}
}

// Check reports liveness and per-store connectivity. It always answers 200;
// consumers inspect the per-service flags.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbConnected := false
	if h.db != nil {
		dbConnected = h.db.Ping(ctx) == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": domain.NowISO(),
		"services": gin.H{
			"database": gin.H{
				"connected": dbConnected,
			},
			"redis": gin.H{
				"connected": h.cache.IsConnected(ctx),
			},
		},
	})
}
