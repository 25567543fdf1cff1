package constants

import "time"

var CacheTTL = struct {
	SocialData  time.Duration
	Suggestions time.Duration
}{
	SocialData:  24 * time.Hour,
	Suggestions: 1 * time.Hour,
}

var CacheKeys = struct {
	SocialDataFormat        string
	SuggestionsFormat       string
	SuggestionsClearPattern string
}{
	SocialDataFormat:        "session:%s:social",
	SuggestionsFormat:       "suggestions:%s:%s:%s:%s",
	SuggestionsClearPattern: "suggestions:%s:*",
}

var ScraperConfig = struct {
	MaxPosts     int
	PageSize     int
	RetryCount   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	HTTPTimeout  time.Duration
}{
	MaxPosts:     50,
	PageSize:     25,
	RetryCount:   3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     4 * time.Second,
	HTTPTimeout:  10 * time.Second,
}

var GeneratorConfig = struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	Suggestions    int
}{
	MaxRetries:     3,
	BaseDelay:      1 * time.Second,
	MaxDelay:       4 * time.Second,
	RequestTimeout: 10 * time.Second,
	Suggestions:    5,
}

var RedisConfig = struct {
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	ReadyTimeout    time.Duration
}{
	MaxRetries:      3,
	MinRetryBackoff: 1 * time.Second,
	MaxRetryBackoff: 3 * time.Second,
	ReadyTimeout:    5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var AnalyzerConfig = struct {
	MaxSignals     int
	MinTokenLength int
}{
	MaxSignals:     10,
	MinTokenLength: 2,
}

var SessionConfig = struct {
	DefaultLifetime time.Duration
}{
	DefaultLifetime: 7 * 24 * time.Hour,
}
