package service

import (
	"context"
	"time"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/util"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// SocialDataStore is the slice of the cache service the pipeline writes
// through. The aggregate is always replaced wholesale, never patched.
type SocialDataStore interface {
	GetSocialData(ctx context.Context, sessionID string) (*domain.SocialDataCache, error)
	CacheSocialData(ctx context.Context, data *domain.SocialDataCache, ttl time.Duration) error
}

type SocialScraperService struct {
	api      InstagramRequester
	store    SocialDataStore
	logger   *zap.Logger
	maxPosts int
	ttl      time.Duration
}

func NewSocialScraperService(api InstagramRequester, store SocialDataStore, maxPosts int, ttl time.Duration, logger *zap.Logger) *SocialScraperService {
	if maxPosts <= 0 {
		maxPosts = constants.ScraperConfig.MaxPosts
	}
	if ttl <= 0 {
		ttl = constants.CacheTTL.SocialData
	}
	return &SocialScraperService{
		api:      api,
		store:    store,
		logger:   logger,
		maxPosts: maxPosts,
		ttl:      ttl,
	}
}

// ScrapeAndAnalyze populates the session's social cache entry: check cache,
// fetch posts and profile concurrently, extract interest signals, write the
// aggregate. Any fetch or extraction failure aborts the run without touching
// the cache; callers read the result back through the store.
func (s *SocialScraperService) ScrapeAndAnalyze(ctx context.Context, sessionID, userID string, force bool) error {
	if !force {
		cached, err := s.store.GetSocialData(ctx, sessionID)
		if err != nil {
			return err
		}
		if cached != nil {
			s.logger.Info("Using cached social data", zap.String("session_id", sessionID))
			return nil
		}
	}

	var (
		posts   []*domain.SocialPost
		profile *domain.SocialProfile
	)

	// Posts and profile are independent reads; run both, fail on either.
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		posts, err = s.fetchPosts(ctx, userID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		profile, err = s.api.FetchUserProfile(ctx, userID)
		return err
	})

	if err := p.Wait(); err != nil {
		s.logger.Error("Social scrape failed",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	interests := NewKeywordExtractor().ExtractInterests(posts)

	data := &domain.SocialDataCache{
		SessionID:   sessionID,
		Profiles:    []*domain.SocialProfile{profile},
		RecentPosts: posts,
		Interests:   interests,
		Metadata: domain.SocialDataMetadata{
			LastScraped:        domain.NowISO(),
			Platforms:          []domain.Platform{domain.PlatformInstagram},
			TotalPostsAnalyzed: len(posts),
		},
	}

	if err := s.store.CacheSocialData(ctx, data, s.ttl); err != nil {
		s.logger.Error("Failed to cache social data",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Social data scraped and analyzed",
		zap.String("session_id", sessionID),
		zap.Int("posts", len(posts)),
		zap.Int("interests", len(interests)),
	)
	return nil
}

// fetchPosts accumulates pages of up to PageSize posts until the maximum is
// reached or the upstream reports no further cursor. The final list is
// truncated to exactly the maximum even if the last page overshoots.
func (s *SocialScraperService) fetchPosts(ctx context.Context, userID string) ([]*domain.SocialPost, error) {
	posts := make([]*domain.SocialPost, 0, s.maxPosts)
	cursor := ""

	for len(posts) < s.maxPosts {
		limit := util.Min(constants.ScraperConfig.PageSize, s.maxPosts-len(posts))

		page, next, err := s.api.FetchUserMedia(ctx, userID, limit, cursor)
		if err != nil {
			return nil, err
		}

		posts = append(posts, page...)

		if next == "" || len(posts) >= s.maxPosts {
			break
		}
		cursor = next
	}

	if len(posts) > s.maxPosts {
		posts = posts[:s.maxPosts]
	}

	return posts, nil
}
