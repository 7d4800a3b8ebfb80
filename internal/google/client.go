package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Services bundles the three Google API clients the pipeline talks to.
// A valid credential is a precondition; the OAuth handshake happens
// outside this program.
type Services struct {
	Gmail  *GmailService
	Sheets *SheetsService
	Drive  *DriveService
}

// NewServices builds Gmail, Sheets and Drive clients from a credentials file
func NewServices(ctx context.Context, credentialsFile string, logger *zap.Logger) (*Services, error) {
	opts := []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
	return newServices(ctx, logger, opts...)
}

func newServices(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Services, error) {
	gmailSvc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	logger.Info("Google API services initialized")

	return &Services{
		Gmail:  NewGmailService(gmailSvc, logger),
		Sheets: NewSheetsService(sheetsSvc, logger),
		Drive:  NewDriveService(driveSvc, logger),
	}, nil
}
