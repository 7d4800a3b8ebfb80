package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// fullRange covers every populated cell; both the roster and the ledger are
// read and written as whole tables.
const fullRange = "A:Z"

// SheetsService wraps the Sheets API for whole-table reads and writes
type SheetsService struct {
	svc    *sheets.Service
	logger *zap.Logger
}

// NewSheetsService creates a new Sheets wrapper
func NewSheetsService(svc *sheets.Service, logger *zap.Logger) *SheetsService {
	return &SheetsService{svc: svc, logger: logger}
}

// ReadTable reads spreadsheet values as a header row plus data rows
func (s *SheetsService) ReadTable(ctx context.Context, spreadsheetID string) ([]string, [][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, fullRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, fmt.Errorf("spreadsheet %s has no header row", spreadsheetID)
	}

	header := toStringRow(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		rows = append(rows, toStringRow(raw))
	}

	s.logger.Debug("Read spreadsheet table",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.Int("rows", len(rows)))

	return header, rows, nil
}

// WriteTable overwrites the full range with header plus rows, treating
// values as user-entered input
func (s *SheetsService) WriteTable(ctx context.Context, spreadsheetID string, header []string, rows [][]string) error {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toInterfaceRow(header))
	for _, row := range rows {
		values = append(values, toInterfaceRow(row))
	}

	_, err := s.svc.Spreadsheets.Values.
		Update(spreadsheetID, fullRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write spreadsheet %s: %w", spreadsheetID, err)
	}

	s.logger.Info("Wrote spreadsheet table",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.Int("rows", len(rows)))

	return nil
}

func toStringRow(raw []interface{}) []string {
	row := make([]string, len(raw))
	for i, v := range raw {
		row[i] = fmt.Sprint(v)
	}
	return row
}

func toInterfaceRow(row []string) []interface{} {
	raw := make([]interface{}, len(row))
	for i, v := range row {
		raw[i] = v
	}
	return raw
}
