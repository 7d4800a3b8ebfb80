package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
sheets:
  roster_id: roster-sheet-id
  ledger_id: ledger-sheet-id
mail:
  from: bot@example.com
  operator_addr: op@example.com
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://mrng.to/", cfg.Receipts.URLPrefix)
	assert.Equal(t, "tmp_pdfs", cfg.Receipts.WorkDir)
	assert.Equal(t, "receipts", cfg.Drive.RootFolder)
	assert.Equal(t, "NOT_SENT", cfg.Drive.CatchAllFolder)
	assert.Equal(t, "label:for_automation/to_send", cfg.Mailbox.Query)
	assert.Equal(t, "0 7 * * *", cfg.Scheduler.Schedule)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Mail.AttachReceipt)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
sheets:
  roster_id: roster-sheet-id
  ledger_id: ledger-sheet-id
mail:
  from: bot@example.com
  operator_addr: op@example.com
  attach_receipt: false
server:
  port: 9090
drive:
  root_folder: archive
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Mail.AttachReceipt)
	assert.Equal(t, "archive", cfg.Drive.RootFolder)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, `
sheets:
  roster_id: roster-sheet-id
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Sheets:   SheetsConfig{RosterID: "r", LedgerID: "l"},
		Mail:     MailConfig{From: "a@b.c", OperatorAddr: "d@e.f"},
		Receipts: ReceiptsConfig{URLPrefix: "https://mrng.to/"},
		Drive:    DriveConfig{RootFolder: "receipts"},
	}
	assert.NoError(t, valid.Validate())

	noLedger := valid
	noLedger.Sheets.LedgerID = ""
	assert.Error(t, noLedger.Validate())

	noOperator := valid
	noOperator.Mail.OperatorAddr = ""
	assert.Error(t, noOperator.Validate())
}
