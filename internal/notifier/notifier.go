// Package notifier composes and sends the donor receipt mail and the
// operator exception digest.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

const (
	donorSubject  = "קבלה מקהילת הצעירים של גבעת שמואל"
	digestSubject = "Exceptions"
	signature     = "בברכה,\nקהילת הצעירים של גבעת שמואל."
)

// MailSender sends a raw RFC-5322 message
type MailSender interface {
	SendRaw(ctx context.Context, raw []byte) error
}

// Config holds the notifier's addressing and deployment variant
type Config struct {
	From          string
	OperatorAddr  string
	AttachReceipt bool
}

// Notifier sends donor-facing receipt mail and the operator digest.
// It holds no per-run state; every send is self-describing.
type Notifier struct {
	sender MailSender
	cfg    Config
	logger *zap.Logger
}

// New creates a new notifier
func New(sender MailSender, cfg Config, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// NotifyDonor mails the receipt to the donor, as a PDF attachment or as a
// download link depending on the deployment variant. A platform rejection is
// flattened to a recoverable SendRejectedError regardless of its reason.
func (n *Notifier) NotifyDonor(ctx context.Context, mailAddress string, receipt *models.Receipt) error {
	var att *attachment
	var body string

	if n.cfg.AttachReceipt {
		content, err := os.ReadFile(receipt.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to read receipt file: %w", err)
		}
		att = &attachment{
			filename: fmt.Sprintf("receipt%s.pdf", receipt.ID),
			mimeType: "application/pdf",
			content:  content,
		}
		body = fmt.Sprintf("שלום רב,\nמצ״ב קבלה מספר %s על סך %s אשר הופקה בתאריך %s\n\n%s",
			receipt.ID, receipt.Amount, receipt.IssueDate, signature)
	} else {
		body = fmt.Sprintf("שלום רב,\nמצ״ב קישור להורדת קבלה מספר %s על סך %s אשר הופקה בתאריך %s:\n%s\n\n%s",
			receipt.ID, receipt.Amount, receipt.IssueDate, receipt.SourceURL, signature)
	}

	raw, err := buildMessage(n.cfg.From, mailAddress, donorSubject, body, att)
	if err != nil {
		return err
	}

	if err := n.sender.SendRaw(ctx, raw); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return &models.SendRejectedError{MailAddress: mailAddress, Err: err}
		}
		return err
	}

	n.logger.Info("Donor notified",
		zap.String("mail_address", mailAddress),
		zap.String("receipt_id", receipt.ID),
		zap.Bool("attached", att != nil))

	return nil
}

// NotifyOperator mails the collected exception records to the operator,
// one line per failed receipt. Callers only invoke this when records exist;
// a send failure here is fatal to the run.
func (n *Notifier) NotifyOperator(ctx context.Context, records []models.ExceptionRecord) error {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, rec.Line())
	}
	body := strings.Join(lines, "\n") + "\n\n#exception"

	raw, err := buildMessage(n.cfg.From, n.cfg.OperatorAddr, digestSubject, body, nil)
	if err != nil {
		return err
	}

	if err := n.sender.SendRaw(ctx, raw); err != nil {
		return fmt.Errorf("failed to send exception digest: %w", err)
	}

	n.logger.Info("Operator digest sent", zap.Int("exceptions", len(records)))

	return nil
}
