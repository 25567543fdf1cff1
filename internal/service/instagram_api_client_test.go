package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giftguru/gift-guru-go/internal/config"
	"github.com/giftguru/gift-guru-go/pkg/errors"
	"go.uber.org/zap"
)

func testInstagramClient(baseURL string) *InstagramAPIClient {
	return NewInstagramAPIClient(config.InstagramConfig{
		BaseURL:      baseURL,
		APIVersion:   "v18.0",
		RetryCount:   3,
		InitialDelay: time.Millisecond,
	}, zap.NewNop())
}

func TestFetchUserMediaParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/user42/media" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "25" {
			t.Errorf("unexpected limit %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1", "caption": "sunset hike", "media_type": "IMAGE", "media_url": "http://img/1", "timestamp": "2026-01-01T00:00:00Z", "like_count": 12},
				{"id": "2", "caption": "drone footage", "media_type": "VIDEO", "media_url": "http://img/2", "timestamp": "2026-01-02T00:00:00Z"}
			],
			"paging": {"cursors": {"after": "cursor-xyz"}}
		}`))
	}))
	defer server.Close()

	client := testInstagramClient(server.URL)

	posts, cursor, err := client.FetchUserMedia(context.Background(), "user42", 25, "")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if cursor != "cursor-xyz" {
		t.Fatalf("expected cursor-xyz, got %q", cursor)
	}
	if posts[0].Content != "sunset hike" || posts[0].Likes == nil || *posts[0].Likes != 12 {
		t.Fatalf("first post mapped wrong: %+v", posts[0])
	}
	if len(posts[1].Media) != 1 || posts[1].Media[0].Type != "video" {
		t.Fatalf("expected video media ref, got %+v", posts[1].Media)
	}
}

func TestDoRequestRetriesOnlyRateLimits(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testInstagramClient(server.URL)

	_, err := client.DoRequest(context.Background(), http.MethodGet, "/user42/media", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsRetryExhausted(err) {
		t.Fatalf("expected retry-exhausted error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestDoRequestDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testInstagramClient(server.URL)

	_, err := client.DoRequest(context.Background(), http.MethodGet, "/user42", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.IsRetryExhausted(err) {
		t.Fatalf("401 must not be retried: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}

	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 on error, got %+v", appErr)
	}
}

func TestDoRequestDoesNotRetryServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testInstagramClient(server.URL)

	_, err := client.DoRequest(context.Background(), http.MethodGet, "/user42", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
}

func TestDoRequestSucceedsAfterRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"username": "alice"}`))
	}))
	defer server.Close()

	client := testInstagramClient(server.URL)

	profile, err := client.FetchUserProfile(context.Background(), "user42")
	if err != nil {
		t.Fatalf("expected success after one retry, got %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
