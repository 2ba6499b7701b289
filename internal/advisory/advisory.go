package advisory

import (
	"context"
	"fmt"
	"os"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/logger"
	"go.uber.org/zap"
)

// Advisor produces an advisory, non-authoritative assessment of residual
// risk in redacted output. It never raises to the caller: every failure
// degrades to a fixed fallback string naming the regime.
type Advisor struct {
	client   *geminiClient
	cache    *Cache
	maxChars int
	logger   *logger.Logger
}

// New creates an advisor from configuration. When the advisory is disabled
// or the API key is absent, the advisor still works and always returns the
// fallback assessment.
func New(cfg config.AdvisoryConfig, log *logger.Logger) (*Advisor, error) {
	advisor := &Advisor{
		maxChars: cfg.MaxChars,
		logger:   log,
	}
	if advisor.maxChars <= 0 {
		advisor.maxChars = 1000
	}

	if !cfg.Enabled {
		log.Info("Compliance advisory disabled")
		return advisor, nil
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		log.Warn("Advisory enabled but API key is not set; assessments will use the fallback",
			zap.String("api_key_env", cfg.APIKeyEnv),
		)
		return advisor, nil
	}

	advisor.client = newGeminiClient(cfg.BaseURL, cfg.Model, apiKey, cfg.Timeout)

	if cfg.Cache.Enabled {
		cache, err := NewCache(&CacheConfig{
			RedisURL:       cfg.Cache.RedisURL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
		}, log.Logger)
		if err != nil {
			// Cache is an optimization; run without it.
			log.Warn("Advisory cache unavailable", zap.Error(err))
		} else {
			advisor.cache = cache
		}
	}

	log.Info("Compliance advisory initialized",
		zap.String("model", cfg.Model),
		zap.Int("max_chars", advisor.maxChars),
	)

	return advisor, nil
}

// Assess evaluates a bounded prefix of the redacted text under the given
// regime. Findings past the prefix are never assessed; the bound is a
// deliberate cost and latency limit.
func (a *Advisor) Assess(ctx context.Context, redactedText string, regime compliance.Regime) string {
	prefix := redactedText
	if runes := []rune(redactedText); len(runes) > a.maxChars {
		prefix = string(runes[:a.maxChars])
	}

	if a.client == nil {
		return Fallback(regime)
	}

	if a.cache != nil {
		if cached := a.cache.Get(ctx, string(regime), prefix); cached != "" {
			return cached
		}
	}

	assessment, err := a.client.generate(ctx, buildPrompt(prefix, regime))
	if err != nil {
		a.logger.Warn("Advisory assessment failed, using fallback",
			zap.String("regime", string(regime)),
			zap.Error(err),
		)
		return Fallback(regime)
	}

	if a.cache != nil {
		a.cache.Set(ctx, string(regime), prefix, assessment)
	}

	return assessment
}

// Close releases the advisory cache connection if one exists.
func (a *Advisor) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// Fallback is the fixed assessment used whenever automated validation does
// not complete.
func Fallback(regime compliance.Regime) string {
	return fmt.Sprintf("Automated %s compliance validation did not complete; manual review of the redacted output is recommended.", regime)
}

// buildPrompt frames the redacted text for a compliance-officer style
// assessment.
func buildPrompt(redactedPrefix string, regime compliance.Regime) string {
	return fmt.Sprintf(
		"You are a compliance officer validating text redactions for %s. "+
			"Analyze the redacted text and check for:\n"+
			"1. Any remaining personal identifiable information\n"+
			"2. Compliance with %s standards\n"+
			"3. Proper redaction formatting\n\n"+
			"Return a brief assessment (2-3 sentences) of compliance status.\n\n"+
			"Redacted Text:\n%s",
		regime, regime, redactedPrefix,
	)
}
