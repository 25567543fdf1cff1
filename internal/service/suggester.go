package service

import (
	"context"
	"strings"
	"time"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/prompt"
	"github.com/giftguru/gift-guru-go/internal/util"
	"github.com/giftguru/gift-guru-go/pkg/errors"
	"go.uber.org/zap"
)

// JSONGenerator abstracts the AI layer so the suggestion flow can be
// tested without live providers. *ModelManager satisfies it.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, promptText string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error)
}

// SuggestionCache is the slice of the cache layer the suggester needs.
type SuggestionCache interface {
	GetGiftSuggestions(ctx context.Context, sessionID, ageGroup string, interests []string, budget float64) ([]*domain.GiftSuggestion, error)
	CacheGiftSuggestions(ctx context.Context, sessionID, ageGroup string, interests []string, budget float64, suggestions []*domain.GiftSuggestion, ttl time.Duration) error
	DeleteGiftSuggestions(ctx context.Context, sessionID string) (int64, error)
}

// SuggestionService generates gift suggestions and layers the suggestion
// cache in front of generation.
type SuggestionService struct {
	generator JSONGenerator
	cache     SuggestionCache
	logger    *zap.Logger
	policy    util.RetryPolicy
	timeout   time.Duration
	ttl       time.Duration
	useMocks  bool
}

type SuggestionServiceOptions struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	UseMocks       bool
}

func NewSuggestionService(generator JSONGenerator, cacheSvc SuggestionCache, opts SuggestionServiceOptions, logger *zap.Logger) *SuggestionService {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = constants.GeneratorConfig.MaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = constants.GeneratorConfig.BaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = constants.GeneratorConfig.MaxDelay
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.GeneratorConfig.RequestTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = constants.CacheTTL.Suggestions
	}

	return &SuggestionService{
		generator: generator,
		cache:     cacheSvc,
		logger:    logger,
		policy: util.RetryPolicy{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.BaseDelay,
			MaxDelay:    opts.MaxDelay,
		},
		timeout:  opts.RequestTimeout,
		ttl:      opts.CacheTTL,
		useMocks: opts.UseMocks,
	}
}

// GetSuggestions generates suggestions for the given recipient, retrying
// failed generation attempts with exponential backoff. Results are
// normalized before returning: confidence clamped to [0,1], prices
// outside (0, budget] dropped.
func (s *SuggestionService) GetSuggestions(ctx context.Context, ageGroup string, interests []string, budget float64) ([]*domain.GiftSuggestion, error) {
	if s.useMocks {
		s.logger.Info("Using mock gift suggestions (development mode)")
		return s.mockSuggestions(interests, ageGroup), nil
	}

	promptText := prompt.GiftSuggestionPrompt(prompt.SuggestionPromptData{
		AgeGroup:  ageGroup,
		Interests: interests,
		Budget:    budget,
	})

	retryAll := func(err error) bool { return true }

	suggestions, err := util.Retry(ctx, s.policy, retryAll, func(ctx context.Context) ([]*domain.GiftSuggestion, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var result []*domain.GiftSuggestion
		meta, genErr := s.generator.GenerateJSON(attemptCtx, promptText, PresetCreative, &result, nil)
		if genErr != nil {
			return nil, genErr
		}

		s.logger.Debug("Generated gift suggestions",
			zap.String("provider", meta.Provider),
			zap.String("model", meta.Model),
			zap.Bool("used_fallback", meta.UsedFallback),
			zap.Int("count", len(result)),
		)
		return result, nil
	})
	if err != nil {
		s.logger.Error("Gift suggestion generation failed after retries", zap.Error(err))
		return nil, errors.NewRetryExhaustedError(
			"failed to generate gift suggestions after multiple retries",
			"gift_generation",
			s.policy.MaxAttempts,
			err,
		)
	}

	return s.normalize(suggestions, ageGroup, budget), nil
}

// GetSuggestionsCached serves from the suggestion cache when possible,
// generating and caching on a miss. The returned source is "cache" or
// "fresh". force bypasses the cache read but still refreshes the entry.
// Cache read and write failures surface to the caller.
func (s *SuggestionService) GetSuggestionsCached(ctx context.Context, sessionID, ageGroup string, interests []string, budget float64, force bool) ([]*domain.GiftSuggestion, string, error) {
	if !force {
		cached, err := s.cache.GetGiftSuggestions(ctx, sessionID, ageGroup, interests, budget)
		if err != nil {
			s.logger.Error("Suggestion cache lookup failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return nil, "", err
		}
		if cached != nil {
			s.logger.Info("Serving gift suggestions from cache",
				zap.String("session_id", sessionID),
				zap.Int("count", len(cached)),
			)
			return cached, domain.SourceCache, nil
		}
	}

	suggestions, err := s.GetSuggestions(ctx, ageGroup, interests, budget)
	if err != nil {
		return nil, "", err
	}

	if cacheErr := s.cache.CacheGiftSuggestions(ctx, sessionID, ageGroup, interests, budget, suggestions, s.ttl); cacheErr != nil {
		s.logger.Error("Failed to cache gift suggestions",
			zap.String("session_id", sessionID),
			zap.Error(cacheErr),
		)
		return nil, "", cacheErr
	}

	return suggestions, domain.SourceFresh, nil
}

// ClearCache removes every cached suggestion list for the session.
func (s *SuggestionService) ClearCache(ctx context.Context, sessionID string) (int64, error) {
	return s.cache.DeleteGiftSuggestions(ctx, sessionID)
}

func (s *SuggestionService) normalize(suggestions []*domain.GiftSuggestion, ageGroup string, budget float64) []*domain.GiftSuggestion {
	out := make([]*domain.GiftSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg == nil {
			continue
		}
		cleaned := *sg
		cleaned.Confidence = util.Clamp(cleaned.Confidence, 0, 1)
		if cleaned.Price != nil && (*cleaned.Price <= 0 || *cleaned.Price > budget) {
			cleaned.Price = nil
		}
		if cleaned.AgeGroup == "" {
			cleaned.AgeGroup = ageGroup
		}
		if cleaned.Source == "" {
			cleaned.Source = "AI recommendation"
		}
		out = append(out, &cleaned)
	}
	return out
}

type mockSuggestion struct {
	title       string
	confidence  float64
	description string
	price       float64
	category    string
}

var mockSuggestionSets = map[string][]mockSuggestion{
	"tech": {
		{"Wireless Noise-Cancelling Earbuds", 0.95, "Perfect for music lovers and commuters", 129.99, "Electronics"},
		{"Smart Watch with Fitness Tracking", 0.92, "Great for health-conscious tech enthusiasts", 199.99, "Wearables"},
		{"Portable Power Bank 20000mAh", 0.88, "Essential for people always on the go", 49.99, "Accessories"},
		{"HD Webcam for Streaming", 0.85, "Ideal for content creators", 79.99, "Electronics"},
		{"Smart Home Starter Kit", 0.82, "Perfect introduction to home automation", 149.99, "Smart Home"},
	},
	"sports": {
		{"Premium Yoga Mat", 0.94, "Perfect for fitness enthusiasts", 68.99, "Fitness"},
		{"Wireless Sport Earphones", 0.91, "Great for workouts", 89.99, "Electronics"},
		{"Smart Water Bottle", 0.87, "Tracks hydration levels", 45.99, "Fitness"},
		{"Compression Running Socks", 0.84, "Enhanced comfort for runners", 24.99, "Apparel"},
		{"Fitness Tracker Band", 0.81, "Monitors activity and sleep", 99.99, "Wearables"},
	},
	"art": {
		{"Professional Sketch Set", 0.96, "High-quality drawing tools", 79.99, "Art Supplies"},
		{"Digital Drawing Tablet", 0.93, "Perfect for digital artists", 159.99, "Electronics"},
		{"Artist's Easel Set", 0.89, "Complete painting setup", 129.99, "Art Supplies"},
		{"Calligraphy Starter Kit", 0.86, "Beautiful writing art", 49.99, "Art Supplies"},
		{"Watercolor Paint Set", 0.83, "Premium painting supplies", 89.99, "Art Supplies"},
	},
}

func (s *SuggestionService) mockSuggestions(interests []string, ageGroup string) []*domain.GiftSuggestion {
	category := "tech"
	for _, interest := range interests {
		if _, ok := mockSuggestionSets[strings.ToLower(interest)]; ok {
			category = strings.ToLower(interest)
			break
		}
	}

	set := mockSuggestionSets[category]
	out := make([]*domain.GiftSuggestion, 0, len(set))
	for _, m := range set {
		price := m.price
		out = append(out, &domain.GiftSuggestion{
			Title:       m.title,
			Description: m.description,
			Price:       &price,
			Confidence:  m.confidence,
			Category:    m.category,
			AgeGroup:    ageGroup,
			Source:      "mock data",
		})
	}
	return out
}
