package advisory

import (
	"context"
	"strings"
	"testing"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/logger"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestAdvisorFallback(t *testing.T) {
	t.Run("DisabledAlwaysFallsBack", func(t *testing.T) {
		advisor, err := New(config.AdvisoryConfig{Enabled: false}, testLogger())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer advisor.Close()

		got := advisor.Assess(context.Background(), "[REDACTED_EMAIL] sent a note.", compliance.HIPAA)
		if got != Fallback(compliance.HIPAA) {
			t.Errorf("Assess = %q, want fallback", got)
		}
	})

	t.Run("MissingAPIKeyFallsBack", func(t *testing.T) {
		t.Setenv("DOCVEIL_TEST_ADVISORY_KEY", "")
		advisor, err := New(config.AdvisoryConfig{
			Enabled:   true,
			APIKeyEnv: "DOCVEIL_TEST_ADVISORY_KEY",
		}, testLogger())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer advisor.Close()

		got := advisor.Assess(context.Background(), "redacted text", compliance.GDPR)
		if got != Fallback(compliance.GDPR) {
			t.Errorf("Assess = %q, want fallback", got)
		}
	})

	t.Run("FallbackNamesRegime", func(t *testing.T) {
		for _, regime := range []compliance.Regime{compliance.GDPR, compliance.HIPAA, compliance.DPDP} {
			if !strings.Contains(Fallback(regime), string(regime)) {
				t.Errorf("Fallback for %s does not name the regime", regime)
			}
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("some [REDACTED_SSN] text", compliance.DPDP)
	if !strings.Contains(prompt, "DPDP") {
		t.Error("Prompt should name the regime")
	}
	if !strings.Contains(prompt, "some [REDACTED_SSN] text") {
		t.Error("Prompt should include the redacted text")
	}
}
