package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/util"
	"go.uber.org/zap"
)

// ModelManager routes JSON generation to Gemini first and falls back to
// OpenAI when enabled, guarded by a shared circuit breaker so a dead
// upstream fails fast instead of burning retries.
type ModelManager struct {
	gemini         JSONProvider
	openai         JSONProvider
	logger         *zap.Logger
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.DefaultGeminiModel, logger)
	if err != nil {
		return nil, err
	}

	mm := &ModelManager{
		gemini:         gemini,
		logger:         logger,
		enableFallback: cfg.EnableFallback && cfg.OpenAIAPIKey != "",
	}

	if openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.DefaultOpenAIModel, logger); openaiProvider != nil {
		mm.openai = openaiProvider
		logger.Info("OpenAI fallback enabled", zap.String("model", cfg.DefaultOpenAIModel))
	} else {
		logger.Info("OpenAI fallback disabled (no API key)")
	}

	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)

	return mm, nil
}

// GenerateJSON generates with the primary provider (falling back when
// configured), strips any markdown fencing, and unmarshals into dest.
func (mm *ModelManager) GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		mm.logger.Error("AI service unavailable (circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		)
		return nil, fmt.Errorf("AI providers unavailable, circuit open")
	}

	if opts == nil {
		opts = &GenerateOptions{}
	}
	opts.JSONMode = true

	var result ProviderResult
	var metadata *GenerateMetadata

	geminiResult, geminiErr := mm.gemini.Generate(ctx, prompt, preset, opts)
	if geminiErr == nil {
		mm.circuitBreaker.RecordSuccess()
		result = geminiResult
		metadata = &GenerateMetadata{
			Provider: mm.gemini.Name(),
			Model:    geminiResult.Model,
		}
	} else if mm.enableFallback && mm.openai != nil {
		openaiResult, openaiErr := mm.openai.Generate(ctx, prompt, preset, opts)
		if openaiErr != nil {
			mm.recordProviderFailure(geminiErr, openaiErr)
			return nil, fmt.Errorf("all AI providers failed: %w", openaiErr)
		}
		mm.circuitBreaker.RecordSuccess()
		result = openaiResult
		metadata = &GenerateMetadata{
			Provider:     mm.openai.Name(),
			Model:        openaiResult.Model,
			UsedFallback: true,
		}
	} else {
		mm.recordProviderFailure(geminiErr)
		return nil, geminiErr
	}

	trimmed := strings.TrimSpace(result.Text)
	if trimmed == "" {
		return nil, fmt.Errorf("%s API returned empty response", metadata.Provider)
	}

	cleaned := stripMarkdownFences(trimmed)

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		previewLen := util.Min(len(cleaned), 200)
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", cleaned[:previewLen]),
		)
		return nil, fmt.Errorf("invalid JSON from %s: %w", metadata.Provider, err)
	}

	return metadata, nil
}

func (mm *ModelManager) recordProviderFailure(errs ...error) {
	for _, err := range errs {
		if mm.isServiceFailure(err) {
			timeout := constants.CircuitBreakerConfig.ResetTimeout
			if mm.isRateLimitError(err) {
				timeout = constants.CircuitBreakerConfig.RateLimitTimeout
			}
			mm.circuitBreaker.RecordFailure(timeout)
			return
		}
	}
}

func stripMarkdownFences(text string) string {
	cleaned := text
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health check: testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	geminiOK := mm.gemini.Ping(ctx)
	openaiOK := false

	if mm.enableFallback && mm.openai != nil {
		openaiOK = mm.openai.Ping(ctx)
	}

	isHealthy := geminiOK || openaiOK

	mm.logger.Info("Health check: result",
		zap.Bool("gemini", geminiOK),
		zap.Bool("openai", openaiOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

var (
	statusCodeRegex = regexp.MustCompile(`\b(5\d{2})\b`)
	jsonCodeRegex   = regexp.MustCompile(`"code":(\d{3})`)
	prefixCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

func (mm *ModelManager) isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return true
	}

	if mm.isRateLimitError(err) {
		return true
	}

	if statusCodeRegex.MatchString(msg) {
		return true
	}

	for _, re := range []*regexp.Regexp{jsonCodeRegex, prefixCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, convErr := strconv.Atoi(matches[1]); convErr == nil {
				return code >= 500 && code < 600
			}
		}
	}

	return false
}

func (mm *ModelManager) isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	for _, re := range []*regexp.Regexp{jsonCodeRegex, prefixCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, convErr := strconv.Atoi(matches[1]); convErr == nil {
				return code == 429
			}
		}
	}

	return false
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}
