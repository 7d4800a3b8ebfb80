// Package app wires configuration, platform clients and pipeline components
// into a ready-to-run application.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/archiver"
	"github.com/kehilathaz/receipts-automation/internal/config"
	"github.com/kehilathaz/receipts-automation/internal/extractor"
	"github.com/kehilathaz/receipts-automation/internal/google"
	"github.com/kehilathaz/receipts-automation/internal/history"
	"github.com/kehilathaz/receipts-automation/internal/ledger"
	"github.com/kehilathaz/receipts-automation/internal/notifier"
	"github.com/kehilathaz/receipts-automation/internal/pipeline"
	"github.com/kehilathaz/receipts-automation/pkg/database"
	"github.com/kehilathaz/receipts-automation/pkg/utils"
)

// App holds the wired application components
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Services *google.Services
	Runner   *pipeline.Runner
	History  *history.Repository

	db *database.DB
}

// New loads configuration and wires every component
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	services, err := google.NewServices(ctx, cfg.Google.CredentialsFile, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.New(database.Config{
		Path:            cfg.History.Path,
		MaxOpenConns:    cfg.History.MaxOpenConns,
		MaxIdleConns:    cfg.History.MaxIdleConns,
		ConnMaxLifetime: cfg.History.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(history.Migrations); err != nil {
		db.Close()
		return nil, err
	}

	runs := history.NewRepository(db, logger)

	runner := pipeline.NewRunner(
		pipeline.Config{
			URLPrefix:      cfg.Receipts.URLPrefix,
			CatchAllFolder: cfg.Drive.CatchAllFolder,
			MailboxQuery:   cfg.Mailbox.Query,
			ToSendLabelID:  cfg.Mailbox.ToSendLabelID,
			SentLabelID:    cfg.Mailbox.SentLabelID,
		},
		extractor.New(cfg.Receipts.WorkDir, logger),
		notifier.New(services.Gmail, notifier.Config{
			From:          cfg.Mail.From,
			OperatorAddr:  cfg.Mail.OperatorAddr,
			AttachReceipt: cfg.Mail.AttachReceipt,
		}, logger),
		archiver.New(services.Drive, cfg.Drive.RootFolder, logger),
		services.Gmail,
		pipeline.NewSheetLoader(services.Sheets, cfg.Sheets.RosterID, cfg.Sheets.LedgerID, logger),
		runs,
		logger,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Services: services,
		Runner:   runner,
		History:  runs,
		db:       db,
	}, nil
}

// LoadLedger reads the current payments ledger, for export tooling
func (a *App) LoadLedger(ctx context.Context) (*ledger.Ledger, error) {
	return ledger.Load(ctx, a.Services.Sheets, a.Config.Sheets.LedgerID, a.Logger)
}

// Close releases held resources
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.Logger.Sync()
}
