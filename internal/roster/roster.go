// Package roster resolves donor account names against the externally
// maintained member spreadsheet.
package roster

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// rosterColumns is the expected width of the roster table:
// account_name, name, mail. Short rows are padded with empty cells.
const rosterColumns = 3

// TableReader reads a whole spreadsheet as header plus rows
type TableReader interface {
	ReadTable(ctx context.Context, spreadsheetID string) ([]string, [][]string, error)
}

// Roster is the in-memory copy of the donor roster, loaded once per run
type Roster struct {
	entries []models.RosterEntry
	logger  *zap.Logger
}

// Load reads the roster spreadsheet into memory
func Load(ctx context.Context, reader TableReader, spreadsheetID string, logger *zap.Logger) (*Roster, error) {
	_, rows, err := reader.ReadTable(ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	entries := make([]models.RosterEntry, 0, len(rows))
	for _, row := range rows {
		for len(row) < rosterColumns {
			row = append(row, "")
		}
		entries = append(entries, models.RosterEntry{
			AccountName: row[0],
			DisplayName: row[1],
			MailAddress: row[2],
		})
	}

	logger.Info("Roster loaded", zap.Int("entries", len(entries)))

	return &Roster{entries: entries, logger: logger}, nil
}

// Lookup resolves an account name to its roster entry by exact match.
// No match, more than one match, or a match without a mail address are all
// lookup failures that skip the current receipt only.
func (r *Roster) Lookup(accountName string) (*models.RosterEntry, error) {
	var found *models.RosterEntry
	for i := range r.entries {
		if r.entries[i].AccountName != accountName {
			continue
		}
		if found != nil {
			return nil, &models.LookupError{
				AccountName: accountName,
				Reason:      fmt.Sprintf("%s appears more than once in the google sheet", accountName),
			}
		}
		found = &r.entries[i]
	}

	if found == nil {
		return nil, &models.LookupError{
			AccountName: accountName,
			Reason:      fmt.Sprintf("%s doesn't appear in the google sheet", accountName),
		}
	}
	if found.MailAddress == "" {
		return nil, &models.LookupError{
			AccountName: accountName,
			Reason:      fmt.Sprintf("%s doesn't have a mail address", found.DisplayName),
		}
	}

	return found, nil
}
