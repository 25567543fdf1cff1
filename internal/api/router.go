package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	Development    bool
}

// NewRouter wires the HTTP surface: gift suggestions, social ingestion,
// session CRUD, and the health probe.
func NewRouter(cfg RouterConfig, gifts *GiftsHandler, social *SocialHandler, sessions *SessionsHandler, health *HealthHandler) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", health.Check)

	giftsGroup := router.Group("/api/gifts")
	{
		giftsGroup.POST("/suggest", gifts.GetSuggestions)
		giftsGroup.DELETE("/cache/:sessionId", gifts.ClearCache)
	}

	socialGroup := router.Group("/api/social")
	{
		socialGroup.POST("/scrape", social.Scrape)
		socialGroup.GET("/cache/:sessionId", social.GetCachedData)
		socialGroup.DELETE("/cache/:sessionId", social.ClearCache)
	}

	sessionsGroup := router.Group("/api/sessions")
	{
		sessionsGroup.POST("", sessions.Create)
		sessionsGroup.GET("/:sessionId", sessions.Get)
		sessionsGroup.PUT("/:sessionId", sessions.Update)
		sessionsGroup.DELETE("/:sessionId", sessions.Delete)
	}

	return router
}
