package ner

import (
	"context"
	"strings"
	"time"

	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pii"
	"go.uber.org/zap"
)

// Outcome is the result of one adapter invocation.
type Outcome struct {
	Status Status
	Items  []pii.Item
	Err    error
}

// Config contains adapter settings.
type Config struct {
	// MaxChars bounds how much text the recognizer sees. The semantic path
	// is incomplete past this boundary; only the pattern matcher covers
	// full-document length.
	MaxChars            int
	ConfidenceThreshold float64
	Timeout             time.Duration
}

// Adapter wraps a Recognizer and maps its generic entity labels into the
// canonical PII type vocabulary. Recognition failures never propagate as
// errors: detection degrades gracefully to the pattern matcher alone.
type Adapter struct {
	recognizer Recognizer
	policy     pii.NamePolicy
	config     Config
	logger     *logger.Logger
}

// NewAdapter creates an adapter around the given recognizer. A nil
// recognizer is valid and yields StatusUnavailable outcomes.
func NewAdapter(recognizer Recognizer, policy pii.NamePolicy, cfg Config, log *logger.Logger) *Adapter {
	if policy == nil {
		policy = pii.DefaultNamePolicy()
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 5000
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Adapter{
		recognizer: recognizer,
		policy:     policy,
		config:     cfg,
		logger:     log,
	}
}

// Detect runs the recognizer on a bounded prefix of text and maps the
// entities to canonical items.
func (a *Adapter) Detect(ctx context.Context, text string) Outcome {
	if a.recognizer == nil || !a.recognizer.IsReady() {
		return Outcome{Status: StatusUnavailable}
	}

	prefix := text
	if runes := []rune(text); len(runes) > a.config.MaxChars {
		prefix = string(runes[:a.config.MaxChars])
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	entities, err := a.recognizer.Recognize(ctx, prefix, a.config.ConfidenceThreshold)
	if err != nil {
		a.logger.Warn("Entity recognition failed, continuing with pattern detection only",
			zap.Error(err),
		)
		return Outcome{Status: StatusFailed, Err: err}
	}

	items := a.mapEntities(entities)

	a.logger.Debug("Entity recognition completed",
		zap.Int("entities", len(entities)),
		zap.Int("mapped_items", len(items)),
	)

	return Outcome{Status: StatusOK, Items: items}
}

// mapEntities translates recognizer labels into canonical types. Unmapped
// labels are dropped.
func (a *Adapter) mapEntities(entities []Entity) []pii.Item {
	var items []pii.Item

	for _, ent := range entities {
		value := strings.TrimSpace(ent.Text)
		if value == "" {
			continue
		}

		switch strings.ToLower(ent.Label) {
		case "person":
			if a.policy.LikelyPerson(value) {
				items = append(items, pii.Item{Type: pii.TypeName, Value: value})
			}
		case "organization":
			items = append(items, pii.Item{Type: pii.TypeOrganization, Value: value})
		case "location":
			items = append(items, pii.Item{Type: pii.TypeLocation, Value: value})
		case "email":
			items = append(items, pii.Item{Type: pii.TypeEmail, Value: value})
		case "phone":
			items = append(items, pii.Item{Type: pii.TypePhone, Value: value})
		case "url":
			items = append(items, pii.Item{Type: pii.TypeURL, Value: value})
		case "date", "time":
			items = append(items, pii.Item{Type: pii.TypeDate, Value: value})
		case "money":
			items = append(items, pii.Item{Type: pii.TypeFinancial, Value: value})
		}
	}

	return items
}

// Close releases the underlying recognizer.
func (a *Adapter) Close() error {
	if a.recognizer == nil {
		return nil
	}
	return a.recognizer.Close()
}
