// Package ledger tracks which receipt ids have already been processed,
// backed by the payments spreadsheet.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// ledgerColumns is the width of the payments table: id, name, date, amount
const ledgerColumns = 4

// TableReadWriter reads and overwrites a whole spreadsheet table
type TableReadWriter interface {
	ReadTable(ctx context.Context, spreadsheetID string) ([]string, [][]string, error)
	WriteTable(ctx context.Context, spreadsheetID string, header []string, rows [][]string) error
}

// Ledger is the in-memory payments table for one run. It is loaded once at
// run start, appended to as receipts are processed, and flushed back as a
// full-range replace at the end.
type Ledger struct {
	spreadsheetID string
	sheets        TableReadWriter
	header        []string
	records       []models.PaymentRecord
	logger        *zap.Logger
}

// Load reads the payments spreadsheet into memory
func Load(ctx context.Context, sheets TableReadWriter, spreadsheetID string, logger *zap.Logger) (*Ledger, error) {
	header, rows, err := sheets.ReadTable(ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	records := make([]models.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		for len(row) < ledgerColumns {
			row = append(row, "")
		}
		records = append(records, models.PaymentRecord{
			ID:          row[0],
			AccountName: row[1],
			IssueDate:   row[2],
			Amount:      row[3],
		})
	}

	logger.Info("Ledger loaded", zap.Int("records", len(records)))

	return &Ledger{
		spreadsheetID: spreadsheetID,
		sheets:        sheets,
		header:        header,
		records:       records,
		logger:        logger,
	}, nil
}

// Contains reports whether a receipt id is already recorded
func (l *Ledger) Contains(id string) bool {
	for _, rec := range l.records {
		if rec.ID == id {
			return true
		}
	}
	return false
}

// Append adds a payment record. Records are never removed within a run;
// duplicates are resolved at flush time.
func (l *Ledger) Append(rec models.PaymentRecord) {
	l.records = append(l.records, rec)
}

// Records returns a copy of the current in-memory table, deduplicated
func (l *Ledger) Records() []models.PaymentRecord {
	return dedupe(l.records)
}

// Flush writes the deduplicated table back to the spreadsheet as a
// full-range replace. On duplicate ids the last appended record wins.
func (l *Ledger) Flush(ctx context.Context) error {
	deduped := dedupe(l.records)

	rows := make([][]string, 0, len(deduped))
	for _, rec := range deduped {
		rows = append(rows, []string{rec.ID, rec.AccountName, rec.IssueDate, rec.Amount})
	}

	if err := l.sheets.WriteTable(ctx, l.spreadsheetID, l.header, rows); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}

	l.logger.Info("Ledger flushed",
		zap.Int("records", len(deduped)),
		zap.Int("duplicates_dropped", len(l.records)-len(deduped)))

	return nil
}

// dedupe keeps one record per id, preserving first-seen order while the
// last appended record for an id supplies its fields
func dedupe(records []models.PaymentRecord) []models.PaymentRecord {
	out := make([]models.PaymentRecord, 0, len(records))
	index := make(map[string]int, len(records))
	for _, rec := range records {
		if i, ok := index[rec.ID]; ok {
			out[i] = rec
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}
