package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/docveil/docveil/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore persists audit records in PostgreSQL for deployments that
// want queryable audit history instead of (or alongside) flat files.
type PostgresStore struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewPostgresStore connects to PostgreSQL and ensures the audit schema
// exists.
func NewPostgresStore(databaseURL string, log *logger.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{db: db, logger: log}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Info("Connected to audit database",
		zap.String("database_url", maskDatabaseURL(databaseURL)),
	)

	return store, nil
}

func (s *PostgresStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id BIGSERIAL PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		original_length INTEGER NOT NULL,
		redacted_length INTEGER NOT NULL,
		total_items INTEGER NOT NULL,
		items_by_type JSONB NOT NULL,
		items JSONB NOT NULL,
		compliance_notes TEXT NOT NULL,
		processing_status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_records_recorded_at ON audit_records (recorded_at);
	CREATE INDEX IF NOT EXISTS idx_audit_records_source ON audit_records (source);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Write inserts the record and returns its row identifier.
func (s *PostgresStore) Write(ctx context.Context, record *Record) (string, error) {
	byType, err := json.Marshal(record.ItemsByType)
	if err != nil {
		return "", fmt.Errorf("failed to marshal item counts: %w", err)
	}
	items, err := json.Marshal(record.Items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal item summaries: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO audit_records (
			recorded_at, source, file_size, original_length, redacted_length,
			total_items, items_by_type, items, compliance_notes, processing_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		record.Timestamp, record.Source, record.FileSize,
		record.OriginalLength, record.RedactedLength, record.TotalItems,
		byType, items, record.ComplianceNotes, record.Status,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert audit record: %w", err)
	}

	return fmt.Sprintf("audit_records/%d", id), nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// maskDatabaseURL hides credentials before the URL reaches a log line.
func maskDatabaseURL(url string) string {
	at := strings.Index(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***:***" + url[at:]
}
