package pipeline

import (
	"fmt"

	"github.com/docveil/docveil/internal/advisory"
	"github.com/docveil/docveil/internal/audit"
	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/metrics"
	"github.com/docveil/docveil/internal/ner"
	"github.com/docveil/docveil/internal/pii"
	"github.com/docveil/docveil/internal/redact"
)

// Build assembles a Coordinator from configuration. The returned cleanup
// function releases the advisor and any database-backed audit store.
func Build(cfg *config.Config, recorder *metrics.Recorder, sink EventSink, log *logger.Logger) (*Coordinator, func(), error) {
	detectors := cfg.Detection.Detectors
	if !cfg.Detection.Enabled {
		// No pattern rules; documents are only scanned by the entity
		// recognizer, if that is enabled.
		detectors = nil
		log.Warn("Pattern detection is disabled")
	}
	matcher, err := pii.NewMatcher(detectors, log.WithComponent("patterns"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}

	var adapter *ner.Adapter
	if cfg.Detection.NER.Enabled {
		recognizer := ner.NewRecognizer(log.WithComponent("ner").Logger, cfg.Detection.NER.ModelPath)
		adapter = ner.NewAdapter(recognizer, pii.DefaultNamePolicy(), ner.Config{
			MaxChars:            cfg.Detection.NER.MaxChars,
			ConfidenceThreshold: cfg.Detection.NER.ConfidenceThreshold,
			Timeout:             cfg.Detection.NER.Timeout,
		}, log.WithComponent("ner"))
	}

	advisor, err := advisory.New(cfg.Advisory, log.WithComponent("advisory"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create advisor: %w", err)
	}

	var store audit.Store
	var pgStore *audit.PostgresStore
	if cfg.Audit.Postgres.Enabled {
		pgStore, err = audit.NewPostgresStore(cfg.Audit.Postgres.DatabaseURL, log.WithComponent("audit"))
		if err != nil {
			advisor.Close()
			return nil, nil, fmt.Errorf("failed to create audit store: %w", err)
		}
		store = pgStore
	} else {
		store = audit.NewFileStore(cfg.Audit.Dir, log.WithComponent("audit"))
	}

	coordinator, err := NewCoordinator(Options{
		Matcher:      matcher,
		Recognizer:   adapter,
		TextEngine:   redact.NewTextEngine(log.WithComponent("redact")),
		PDFEngine:    redact.NewPDFEngine(log.WithComponent("redact")),
		Advisor:      advisor,
		AuditStore:   store,
		Metrics:      recorder,
		Events:       sink,
		StrictFilter: cfg.Compliance.StrictFilter,
	}, log)
	if err != nil {
		advisor.Close()
		if pgStore != nil {
			pgStore.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		advisor.Close()
		if adapter != nil {
			adapter.Close()
		}
		if pgStore != nil {
			pgStore.Close()
		}
	}

	return coordinator, cleanup, nil
}
