package app

import (
	"context"
	"fmt"

	"github.com/giftguru/gift-guru-go/internal/api"
	"github.com/giftguru/gift-guru-go/internal/config"
	"github.com/giftguru/gift-guru-go/internal/service"
	"github.com/giftguru/gift-guru-go/internal/service/cache"
	"github.com/giftguru/gift-guru-go/internal/service/database"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Container bundles the assembled service graph. All heavy-weight
// initialization (Redis/Postgres/AI clients) happens in Build so the HTTP
// layer stays orchestration only.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache     *cache.CacheService
	Postgres  *database.PostgresService
	Scraper   *service.SocialScraperService
	Suggester *service.SuggestionService
	Sessions  *service.SessionRepository

	closers []func()
}

// Build assembles all infrastructure services. Partially constructed
// resources are torn down when a later step fails.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	if err := postgresSvc.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}

	sessionRepo := service.NewSessionRepository(postgresSvc, logger)

	// Social ingestion, with a public-page fallback for profile lookups
	instagramClient := service.NewInstagramAPIClient(cfg.Instagram, logger)
	profileScraper := service.NewPublicProfileScraper(logger)
	requester := service.NewRequesterWithProfileFallback(instagramClient, profileScraper, logger)
	scraperSvc := service.NewSocialScraperService(
		requester,
		cacheSvc,
		cfg.Instagram.MaxPosts,
		cfg.Cache.SocialTTL,
		logger,
	)

	// AI stack. Development mode serves canned suggestions and may run
	// without provider keys, so the model manager is only built when the
	// generator will actually be called.
	useMocks := cfg.IsDevelopment()
	var generator service.JSONGenerator
	if !useMocks {
		modelManager, err := service.NewModelManager(ctx, service.ModelManagerConfig{
			GeminiAPIKey:       cfg.Gemini.APIKey,
			OpenAIAPIKey:       cfg.OpenAI.APIKey,
			DefaultGeminiModel: cfg.Gemini.Model,
			DefaultOpenAIModel: cfg.OpenAI.Model,
			EnableFallback:     cfg.OpenAI.EnableFallback,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model manager: %w", err)
		}
		generator = modelManager
	}

	suggesterSvc := service.NewSuggestionService(generator, cacheSvc, service.SuggestionServiceOptions{
		MaxRetries:     cfg.Gemini.MaxRetries,
		RequestTimeout: cfg.Gemini.Timeout,
		CacheTTL:       cfg.Cache.SuggestionsTTL,
		UseMocks:       useMocks,
	}, logger)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Cache:     cacheSvc,
		Postgres:  postgresSvc,
		Scraper:   scraperSvc,
		Suggester: suggesterSvc,
		Sessions:  sessionRepo,
		closers:   closers,
	}, nil
}

// NewRouter builds the HTTP engine on top of the assembled services.
func (c *Container) NewRouter() *gin.Engine {
	gifts := api.NewGiftsHandler(c.Suggester, c.Logger)
	social := api.NewSocialHandler(c.Scraper, c.Cache, c.Logger)
	sessions := api.NewSessionsHandler(c.Sessions, c.Logger)
	health := api.NewHealthHandler(c.Cache, c.Postgres)

	return api.NewRouter(api.RouterConfig{
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		Development:    c.Config.IsDevelopment(),
	}, gifts, social, sessions, health)
}

// Close tears down infrastructure in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
