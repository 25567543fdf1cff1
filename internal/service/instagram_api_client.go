package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/giftguru/gift-guru-go/internal/config"
	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/util"
	"github.com/giftguru/gift-guru-go/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// InstagramRequester is the transport the social pipeline depends on.
type InstagramRequester interface {
	FetchUserMedia(ctx context.Context, userID string, limit int, after string) ([]*domain.SocialPost, string, error)
	FetchUserProfile(ctx context.Context, userID string) (*domain.SocialProfile, error)
}

// InstagramAPIClient talks to the platform Graph API. Only HTTP 429 is
// retried (with exponential backoff); every other failure class propagates
// on the first attempt, since retrying a bad-auth 401 or a 400 would just
// repeat the same mistake.
type InstagramAPIClient struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	retry      util.RetryPolicy
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewInstagramAPIClient(cfg config.InstagramConfig, logger *zap.Logger) *InstagramAPIClient {
	var httpClient *http.Client
	if cfg.AccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
		httpClient = oauth2.NewClient(context.Background(), src)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = constants.ScraperConfig.HTTPTimeout

	return &InstagramAPIClient{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		retry: util.RetryPolicy{
			MaxAttempts: cfg.RetryCount,
			BaseDelay:   cfg.InitialDelay,
			MaxDelay:    constants.ScraperConfig.MaxDelay,
		},
		breaker: util.NewCircuitBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			0,
			nil,
			logger,
		),
		logger: logger,
	}
}

// DoRequest executes one GET (or other method) against the Graph API,
// transparently retrying rate-limited responses per the client's policy.
func (c *InstagramAPIClient) DoRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if !c.breaker.CanExecute() {
		status := c.breaker.GetStatus()
		c.logger.Warn("Instagram circuit breaker is open",
			zap.Int("failure_count", status.FailureCount),
		)
		return nil, errors.NewAPIError("circuit breaker open", 503, map[string]any{
			"path": path,
		})
	}

	reqURL := fmt.Sprintf("%s/%s%s", c.baseURL, c.apiVersion, path)
	if params != nil {
		reqURL += "?" + params.Encode()
	}

	body, err := util.Retry(ctx, c.retry, errors.IsRateLimited, func(ctx context.Context) ([]byte, error) {
		return c.doRequestOnce(ctx, method, reqURL)
	})
	if err != nil {
		if errors.IsRateLimited(err) {
			c.logger.Error("Instagram retries exhausted",
				zap.String("url", reqURL),
				zap.Int("attempts", c.retry.MaxAttempts),
			)
			return nil, errors.NewRetryExhaustedError(
				fmt.Sprintf("rate-limit retries exhausted for %s", reqURL),
				"instagram_fetch", c.retry.MaxAttempts, err)
		}
		return nil, err
	}

	return body, nil
}

func (c *InstagramAPIClient) doRequestOnce(ctx context.Context, method, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(0)
		return nil, errors.NewAPIError("request failed", 0, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		c.breaker.RecordFailure(0)
		return nil, readErr
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Instagram rate limit hit, will retry", zap.String("url", reqURL))
		return nil, errors.NewRateLimitedError(reqURL)
	case resp.StatusCode >= 500:
		c.breaker.RecordFailure(0)
		return nil, errors.NewAPIError(fmt.Sprintf("server error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"url": reqURL,
		})
	case resp.StatusCode >= 400:
		return nil, errors.NewAPIError(fmt.Sprintf("client error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"url":  reqURL,
			"body": string(body),
		})
	}

	c.breaker.RecordSuccess()
	return body, nil
}

type instagramMediaItem struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	Timestamp     string `json:"timestamp"`
	LikeCount     *int   `json:"like_count"`
	CommentsCount *int   `json:"comments_count"`
}

type instagramMediaResponse struct {
	Data   []instagramMediaItem `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
	} `json:"paging"`
}

type instagramProfileResponse struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Biography      string `json:"biography"`
	FollowersCount *int   `json:"followers_count"`
	FollowsCount   *int   `json:"follows_count"`
}

// FetchUserMedia returns one page of posts plus the cursor of the next page
// ("" when the upstream reports no further page).
func (c *InstagramAPIClient) FetchUserMedia(ctx context.Context, userID string, limit int, after string) ([]*domain.SocialPost, string, error) {
	params := url.Values{}
	params.Set("fields", "id,caption,media_type,media_url,timestamp,like_count,comments_count")
	params.Set("limit", strconv.Itoa(limit))
	if after != "" {
		params.Set("after", after)
	}

	body, err := c.DoRequest(ctx, http.MethodGet, fmt.Sprintf("/%s/media", userID), params)
	if err != nil {
		return nil, "", err
	}

	var page instagramMediaResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", errors.NewServiceError("invalid media response", "instagram", "fetch_media", err)
	}

	posts := make([]*domain.SocialPost, 0, len(page.Data))
	for _, item := range page.Data {
		posts = append(posts, mapMediaItem(item))
	}

	return posts, page.Paging.Cursors.After, nil
}

func (c *InstagramAPIClient) FetchUserProfile(ctx context.Context, userID string) (*domain.SocialProfile, error) {
	params := url.Values{}
	params.Set("fields", "username,name,biography,followers_count,follows_count")

	body, err := c.DoRequest(ctx, http.MethodGet, fmt.Sprintf("/%s", userID), params)
	if err != nil {
		return nil, err
	}

	var raw instagramProfileResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewServiceError("invalid profile response", "instagram", "fetch_profile", err)
	}

	return &domain.SocialProfile{
		Platform:    domain.PlatformInstagram,
		Username:    raw.Username,
		DisplayName: raw.Name,
		Bio:         raw.Biography,
		Followers:   raw.FollowersCount,
		Following:   raw.FollowsCount,
		LastUpdated: domain.NowISO(),
	}, nil
}

func mapMediaItem(item instagramMediaItem) *domain.SocialPost {
	post := &domain.SocialPost{
		Platform:  domain.PlatformInstagram,
		ID:        item.ID,
		Content:   item.Caption,
		Timestamp: item.Timestamp,
		Likes:     item.LikeCount,
		Comments:  item.CommentsCount,
	}

	if item.MediaURL != "" {
		mediaType := domain.MediaTypeImage
		if item.MediaType == "VIDEO" || item.MediaType == "video" {
			mediaType = domain.MediaTypeVideo
		}
		post.Media = []domain.MediaRef{{Type: mediaType, URL: item.MediaURL}}
	}

	return post
}
