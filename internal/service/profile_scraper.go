package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	publicProfileBaseURL = "https://www.instagram.com"
	profileScraperUA     = "Mozilla/5.0 (compatible; GiftGuruBot/1.0)"
	profileScrapeTimeout = 15 * time.Second
)

// PublicProfileScraper reads OpenGraph metadata from a public Instagram
// profile page. It is the fallback path when the Graph API has no token
// for the account; it yields a profile summary only, never posts.
type PublicProfileScraper struct {
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string
}

func NewPublicProfileScraper(logger *zap.Logger) *PublicProfileScraper {
	return &PublicProfileScraper{
		httpClient: &http.Client{
			Timeout: profileScrapeTimeout,
		},
		logger:  logger,
		baseURL: publicProfileBaseURL,
	}
}

// FetchProfile scrapes the public page for username. Private or missing
// accounts surface as an API error with the upstream status code.
func (s *PublicProfileScraper) FetchProfile(ctx context.Context, username string) (*domain.SocialProfile, error) {
	url := fmt.Sprintf("%s/%s/", s.baseURL, strings.TrimPrefix(username, "@"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", profileScraperUA)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("public profile request failed", 0, map[string]any{
			"username": username,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError(
			fmt.Sprintf("public profile returned status %d", resp.StatusCode),
			resp.StatusCode,
			map[string]any{"username": username},
		)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewAPIError("public profile HTML parse failed", 0, map[string]any{
			"username": username,
		}).WithCause(err)
	}

	profile := s.parseOpenGraph(doc, username)
	if profile.DisplayName == "" && profile.Bio == "" {
		s.logger.Warn("Public profile page had no OpenGraph metadata",
			zap.String("username", username))
	}

	return profile, nil
}

func (s *PublicProfileScraper) parseOpenGraph(doc *goquery.Document, username string) *domain.SocialProfile {
	profile := &domain.SocialProfile{
		Platform:    domain.PlatformInstagram,
		Username:    username,
		LastUpdated: domain.NowISO(),
	}

	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, exists := sel.Attr("content")
		if !exists {
			return
		}

		switch property {
		case "og:title":
			profile.DisplayName = cleanOGTitle(content, username)
		case "og:description":
			profile.Bio = cleanOGDescription(content)
		}
	})

	return profile
}

// cleanOGTitle strips the "(@username) • Instagram photos and videos"
// suffix Instagram appends to og:title.
func cleanOGTitle(title, username string) string {
	title = strings.TrimSpace(title)

	marker := fmt.Sprintf("(@%s)", strings.TrimPrefix(username, "@"))
	if idx := strings.Index(title, marker); idx != -1 {
		title = title[:idx]
	}
	if idx := strings.Index(title, "• Instagram"); idx != -1 {
		title = title[:idx]
	}

	return strings.TrimSpace(title)
}

// cleanOGDescription drops the leading follower-count summary when present,
// keeping only the free-text bio after the first " - ".
func cleanOGDescription(desc string) string {
	desc = strings.TrimSpace(desc)

	if idx := strings.Index(desc, " - "); idx != -1 && strings.Contains(desc[:idx], "Followers") {
		desc = desc[idx+3:]
	}

	return strings.TrimSpace(desc)
}

// fallbackRequester proxies media fetches to the Graph API client and falls
// back to the public-page scraper when a profile lookup fails there. Media
// has no public fallback; those errors pass through.
type fallbackRequester struct {
	api      InstagramRequester
	profiles *PublicProfileScraper
	logger   *zap.Logger
}

func NewRequesterWithProfileFallback(api InstagramRequester, profiles *PublicProfileScraper, logger *zap.Logger) InstagramRequester {
	return &fallbackRequester{
		api:      api,
		profiles: profiles,
		logger:   logger,
	}
}

func (r *fallbackRequester) FetchUserMedia(ctx context.Context, userID string, limit int, after string) ([]*domain.SocialPost, string, error) {
	return r.api.FetchUserMedia(ctx, userID, limit, after)
}

func (r *fallbackRequester) FetchUserProfile(ctx context.Context, userID string) (*domain.SocialProfile, error) {
	profile, err := r.api.FetchUserProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}

	r.logger.Warn("Graph API profile lookup failed, trying public page",
		zap.String("user_id", userID),
		zap.Error(err),
	)

	fallbackProfile, fallbackErr := r.profiles.FetchProfile(ctx, userID)
	if fallbackErr != nil {
		// Surface the original API error; the fallback was best-effort
		r.logger.Warn("Public profile fallback also failed",
			zap.String("user_id", userID),
			zap.Error(fallbackErr),
		)
		return nil, err
	}

	return fallbackProfile, nil
}
