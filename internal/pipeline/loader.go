package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/ledger"
	"github.com/kehilathaz/receipts-automation/internal/roster"
)

// SheetsAPI is the spreadsheet access the loader needs
type SheetsAPI interface {
	ReadTable(ctx context.Context, spreadsheetID string) ([]string, [][]string, error)
	WriteTable(ctx context.Context, spreadsheetID string, header []string, rows [][]string) error
}

// SheetLoader loads the roster and ledger from their spreadsheets.
// Both are re-read at the start of every run, never mid-run.
type SheetLoader struct {
	sheets   SheetsAPI
	rosterID string
	ledgerID string
	logger   *zap.Logger
}

// NewSheetLoader creates a loader bound to the two spreadsheet ids
func NewSheetLoader(sheets SheetsAPI, rosterID, ledgerID string, logger *zap.Logger) *SheetLoader {
	return &SheetLoader{
		sheets:   sheets,
		rosterID: rosterID,
		ledgerID: ledgerID,
		logger:   logger,
	}
}

// LoadRoster reads the donor roster spreadsheet
func (l *SheetLoader) LoadRoster(ctx context.Context) (RosterLookup, error) {
	return roster.Load(ctx, l.sheets, l.rosterID, l.logger)
}

// LoadLedger reads the payments spreadsheet
func (l *SheetLoader) LoadLedger(ctx context.Context) (PaymentLedger, error) {
	return ledger.Load(ctx, l.sheets, l.ledgerID, l.logger)
}
