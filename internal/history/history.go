// Package history keeps a local log of finished pipeline runs.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
	"github.com/kehilathaz/receipts-automation/pkg/database"
)

// Migrations is the run-history schema
var Migrations = []database.Migration{
	{
		Version: 1,
		Name:    "create_runs",
		SQL: `
			CREATE TABLE IF NOT EXISTS runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				trigger_kind TEXT NOT NULL,
				started_at DATETIME NOT NULL,
				finished_at DATETIME NOT NULL,
				sent INTEGER NOT NULL,
				already_sent INTEGER NOT NULL,
				failed INTEGER NOT NULL,
				error_lines TEXT NOT NULL DEFAULT ''
			);
		`,
	},
}

// Repository stores run summaries in SQLite
type Repository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRepository creates a new run-history repository
func NewRepository(db *database.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Record inserts one finished run
func (r *Repository) Record(ctx context.Context, rec models.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (trigger_kind, started_at, finished_at, sent, already_sent, failed, error_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Trigger,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
		rec.Sent,
		rec.AlreadySent,
		rec.Failed,
		strings.Join(rec.ErrorLines, "\n"),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	r.logger.Debug("Run recorded",
		zap.String("trigger", rec.Trigger),
		zap.Int("sent", rec.Sent),
		zap.Int("failed", rec.Failed))

	return nil
}

// Recent returns the latest run summaries, newest first
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trigger_kind, started_at, finished_at, sent, already_sent, failed, error_lines
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var started, finished time.Time
		var errorLines string
		if err := rows.Scan(&rec.Trigger, &started, &finished,
			&rec.Sent, &rec.AlreadySent, &rec.Failed, &errorLines); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = started
		rec.FinishedAt = finished
		if errorLines != "" {
			rec.ErrorLines = strings.Split(errorLines, "\n")
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
