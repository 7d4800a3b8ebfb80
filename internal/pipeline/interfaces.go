package pipeline

import (
	"context"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// ReceiptExtractor downloads a receipt PDF and scrapes its fields
type ReceiptExtractor interface {
	PrepareWorkDir() error
	CleanupWorkDir() error
	Extract(ctx context.Context, url string) (*models.Receipt, error)
}

// RosterLookup resolves a donor account name to a roster entry
type RosterLookup interface {
	Lookup(accountName string) (*models.RosterEntry, error)
}

// PaymentLedger tracks processed receipt ids for one run
type PaymentLedger interface {
	Contains(id string) bool
	Append(rec models.PaymentRecord)
	Flush(ctx context.Context) error
}

// DonorNotifier sends donor receipt mail and the operator digest
type DonorNotifier interface {
	NotifyDonor(ctx context.Context, mailAddress string, receipt *models.Receipt) error
	NotifyOperator(ctx context.Context, records []models.ExceptionRecord) error
}

// ReceiptArchiver files receipt PDFs into the per-donor folder tree
type ReceiptArchiver interface {
	EnsureRootFolder(ctx context.Context) (string, error)
	Store(ctx context.Context, rootFolderID, donorName, localPath, receiptID, issueDate string) (string, error)
}

// Mailbox is the labeled-message source for the unattended variant
type Mailbox interface {
	ListMessageIDs(ctx context.Context, query string) ([]string, error)
	MessageBody(ctx context.Context, messageID string) (string, error)
	SwapLabels(ctx context.Context, messageID, addLabelID, removeLabelID string) error
}

// StateLoader loads the per-run roster and ledger snapshots
type StateLoader interface {
	LoadRoster(ctx context.Context) (RosterLookup, error)
	LoadLedger(ctx context.Context) (PaymentLedger, error)
}

// RunRecorder persists a summary of a finished run
type RunRecorder interface {
	Record(ctx context.Context, rec models.RunRecord) error
}
