package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response string
	calls    int
}

func (s *stubGenerator) GenerateJSON(_ context.Context, _ string, _ service.ModelPreset, dest any, _ *service.GenerateOptions) (*service.GenerateMetadata, error) {
	s.calls++
	if err := json.Unmarshal([]byte(s.response), dest); err != nil {
		return nil, err
	}
	return &service.GenerateMetadata{Provider: "Gemini", Model: "test-model"}, nil
}

type stubCache struct {
	suggestions map[string][]*domain.GiftSuggestion
	social      map[string]*domain.SocialDataCache
}

func newStubCache() *stubCache {
	return &stubCache{
		suggestions: make(map[string][]*domain.GiftSuggestion),
		social:      make(map[string]*domain.SocialDataCache),
	}
}

func (s *stubCache) GetGiftSuggestions(_ context.Context, sessionID, ageGroup string, _ []string, _ float64) ([]*domain.GiftSuggestion, error) {
	return s.suggestions[sessionID+"|"+ageGroup], nil
}

func (s *stubCache) CacheGiftSuggestions(_ context.Context, sessionID, ageGroup string, _ []string, _ float64, suggestions []*domain.GiftSuggestion, _ time.Duration) error {
	s.suggestions[sessionID+"|"+ageGroup] = suggestions
	return nil
}

func (s *stubCache) DeleteGiftSuggestions(_ context.Context, sessionID string) (int64, error) {
	var deleted int64
	for key := range s.suggestions {
		if len(key) > len(sessionID) && key[:len(sessionID)] == sessionID {
			delete(s.suggestions, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *stubCache) GetSocialData(_ context.Context, sessionID string) (*domain.SocialDataCache, error) {
	return s.social[sessionID], nil
}

func (s *stubCache) CacheSocialData(_ context.Context, data *domain.SocialDataCache, _ time.Duration) error {
	s.social[data.SessionID] = data
	return nil
}

func (s *stubCache) DeleteSocialData(_ context.Context, sessionID string) error {
	delete(s.social, sessionID)
	return nil
}

func (s *stubCache) IsConnected(_ context.Context) bool {
	return true
}

type stubRequester struct{}

func (stubRequester) FetchUserMedia(_ context.Context, _ string, _ int, _ string) ([]*domain.SocialPost, string, error) {
	return []*domain.SocialPost{
		{Platform: domain.PlatformInstagram, ID: "1", Content: "hiking photography"},
	}, "", nil
}

func (stubRequester) FetchUserProfile(_ context.Context, _ string) (*domain.SocialProfile, error) {
	return &domain.SocialProfile{Platform: domain.PlatformInstagram, Username: "alice"}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubGenerator, *stubCache) {
	t.Helper()
	logger := zap.NewNop()

	gen := &stubGenerator{response: `[{"title": "Drawing Tablet", "confidence": 0.9, "price": 80}]`}
	cache := newStubCache()

	suggester := service.NewSuggestionService(gen, cache, service.SuggestionServiceOptions{
		BaseDelay: time.Millisecond,
	}, logger)
	scraper := service.NewSocialScraperService(stubRequester{}, cache, 50, time.Hour, logger)

	router := NewRouter(RouterConfig{Development: false},
		NewGiftsHandler(suggester, logger),
		NewSocialHandler(scraper, cache, logger),
		NewSessionsHandler(nil, logger),
		NewHealthHandler(cache, nil),
	)
	return router, gen, cache
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSuggestEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/gifts/suggest", map[string]any{
		"sessionId": "s1",
		// missing ageGroup, interests, budget
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestSuggestEndpointFreshThenCache(t *testing.T) {
	router, gen, _ := newTestRouter(t)

	payload := map[string]any{
		"sessionId": "s1",
		"ageGroup":  "adult",
		"interests": []string{"art"},
		"budget":    100,
	}

	rec := doJSON(t, router, http.MethodPost, "/api/gifts/suggest", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "fresh", body["source"])

	rec = doJSON(t, router, http.MethodPost, "/api/gifts/suggest", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cache", body["source"])
	assert.Equal(t, 1, gen.calls)
}

func TestSuggestCacheClearEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	payload := map[string]any{
		"sessionId": "s1",
		"ageGroup":  "adult",
		"interests": []string{"art"},
		"budget":    100,
	}
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/gifts/suggest", payload).Code)

	rec := doJSON(t, router, http.MethodDelete, "/api/gifts/cache/s1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Cleared 1 cached suggestions", body["message"])
}

func TestScrapeEndpointReturnsAggregate(t *testing.T) {
	router, _, cache := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/social/scrape", map[string]any{
		"sessionId":       "s1",
		"instagramUserId": "user42",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                    `json:"success"`
		Source  string                  `json:"source"`
		Data    *domain.SocialDataCache `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "fresh", body.Source)
	require.NotNil(t, body.Data)
	assert.Equal(t, 1, body.Data.Metadata.TotalPostsAnalyzed)

	require.NotNil(t, cache.social["s1"])
}

func TestSocialCacheEndpointNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/social/cache/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Services struct {
			Redis struct {
				Connected bool `json:"connected"`
			} `json:"redis"`
			Database struct {
				Connected bool `json:"connected"`
			} `json:"database"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Services.Redis.Connected)
	assert.False(t, body.Services.Database.Connected)
}
