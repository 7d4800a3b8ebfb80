package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "payments"

// ExportXLSX writes the current deduplicated ledger to a timestamped Excel
// workbook under dir and returns the file path. Used as an offline backup of
// the payments sheet.
func (l *Ledger) ExportXLSX(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(l.header))
	for i, col := range l.header {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range dedupe(l.records) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("failed to compute cell: %w", err)
		}
		row := []interface{}{rec.ID, rec.AccountName, rec.IssueDate, rec.Amount}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("payments-%s.xlsx", time.Now().Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	l.logger.Info("Ledger exported", zap.String("path", path))

	return path, nil
}
