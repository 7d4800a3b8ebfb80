// Package pipeline drives the end-to-end receipt run: discover receipt
// links, extract, resolve the donor, notify, archive and record, then report
// failures and persist the ledger.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// Trigger values recorded with each run
const (
	TriggerManual    = "manual"
	TriggerAPI       = "api"
	TriggerScheduled = "scheduled"
)

// Config holds the pipeline's fixed settings
type Config struct {
	URLPrefix      string
	CatchAllFolder string
	MailboxQuery   string
	ToSendLabelID  string
	SentLabelID    string
}

// Runner orchestrates one run at a time. It owns the in-memory ledger and
// exception collection for the run's lifetime; all component calls are
// strictly sequential.
type Runner struct {
	cfg       Config
	extractor ReceiptExtractor
	notifier  DonorNotifier
	archiver  ReceiptArchiver
	mailbox   Mailbox
	loader    StateLoader
	recorder  RunRecorder
	logger    *zap.Logger
}

// NewRunner creates a new pipeline runner. mailbox may be nil when only the
// pasted-text variant is used; recorder may be nil to skip run history.
func NewRunner(
	cfg Config,
	extractor ReceiptExtractor,
	notifier DonorNotifier,
	archiver ReceiptArchiver,
	mailbox Mailbox,
	loader StateLoader,
	recorder RunRecorder,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		extractor: extractor,
		notifier:  notifier,
		archiver:  archiver,
		mailbox:   mailbox,
		loader:    loader,
		recorder:  recorder,
		logger:    logger,
	}
}

// runState carries the per-run snapshots and accumulators
type runState struct {
	roster       RosterLookup
	ledger       PaymentLedger
	rootFolderID string
	result       *models.RunResult
	exceptions   []models.ExceptionRecord
}

// RunFromText processes every receipt URL found in user-supplied text and
// returns the three outcome buckets.
func (r *Runner) RunFromText(ctx context.Context, text, trigger string) (*models.RunResult, error) {
	urls := DiscoverURLs(text, r.cfg.URLPrefix)
	r.logger.Info("Discovered receipt urls from text", zap.Int("count", len(urls)))

	st, err := r.beginRun(ctx)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	started := time.Now()
	for _, url := range urls {
		if err := r.processURL(ctx, st, url); err != nil {
			return nil, err
		}
	}

	if err := r.finishRun(ctx, st); err != nil {
		return nil, err
	}

	r.record(ctx, trigger, started, st)
	return st.result, nil
}

// RunFromMailbox processes every labeled mailbox message, swapping each
// message's label from to-send to sent once its URLs are handled.
func (r *Runner) RunFromMailbox(ctx context.Context, trigger string) (*models.RunResult, error) {
	messageIDs, err := r.mailbox.ListMessageIDs(ctx, r.cfg.MailboxQuery)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Discovered mailbox messages", zap.Int("count", len(messageIDs)))

	st, err := r.beginRun(ctx)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	started := time.Now()
	for _, messageID := range messageIDs {
		body, err := r.mailbox.MessageBody(ctx, messageID)
		if err != nil {
			return nil, err
		}

		urls := DiscoverURLs(body, r.cfg.URLPrefix)
		r.logger.Info("Processing mailbox message",
			zap.String("message_id", messageID),
			zap.Int("urls", len(urls)))

		for _, url := range urls {
			if err := r.processURL(ctx, st, url); err != nil {
				return nil, err
			}
		}

		// The message is marked processed at message granularity, even when
		// some of its URLs failed.
		if err := r.mailbox.SwapLabels(ctx, messageID, r.cfg.SentLabelID, r.cfg.ToSendLabelID); err != nil {
			return nil, err
		}
	}

	if err := r.finishRun(ctx, st); err != nil {
		return nil, err
	}

	r.record(ctx, trigger, started, st)
	return st.result, nil
}

// beginRun loads the per-run snapshots and prepares the working directory
func (r *Runner) beginRun(ctx context.Context) (*runState, error) {
	rosterSnapshot, err := r.loader.LoadRoster(ctx)
	if err != nil {
		return nil, err
	}

	ledgerSnapshot, err := r.loader.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.extractor.PrepareWorkDir(); err != nil {
		return nil, err
	}

	rootFolderID, err := r.archiver.EnsureRootFolder(ctx)
	if err != nil {
		return nil, err
	}

	return &runState{
		roster:       rosterSnapshot,
		ledger:       ledgerSnapshot,
		rootFolderID: rootFolderID,
		result:       &models.RunResult{},
	}, nil
}

// processURL runs the extract → lookup → notify → archive → record sequence
// for one receipt URL. The three recoverable error kinds abort this URL only
// and are collected; anything else is returned and aborts the run.
func (r *Runner) processURL(ctx context.Context, st *runState, url string) error {
	receipt, err := r.extractor.Extract(ctx, url)
	if err != nil {
		return r.collect(ctx, st, url, nil, err)
	}

	entry, err := st.roster.Lookup(receipt.AccountName)
	if err != nil {
		return r.collect(ctx, st, url, receipt, err)
	}

	if st.ledger.Contains(receipt.ID) {
		st.result.AlreadySent = append(st.result.AlreadySent, url)
		r.logger.Info("Receipt already processed",
			zap.String("url", url),
			zap.String("receipt_id", receipt.ID))
	} else {
		if err := r.notifier.NotifyDonor(ctx, entry.MailAddress, receipt); err != nil {
			return r.collect(ctx, st, url, receipt, err)
		}

		if _, err := r.archiver.Store(ctx, st.rootFolderID, entry.DisplayName,
			receipt.LocalPath, receipt.ID, receipt.IssueDate); err != nil {
			return err
		}

		st.result.Sent = append(st.result.Sent, url)
		r.logger.Info("Receipt sent",
			zap.String("url", url),
			zap.String("receipt_id", receipt.ID),
			zap.String("donor", entry.DisplayName))
	}

	st.ledger.Append(models.PaymentRecord{
		ID:          receipt.ID,
		AccountName: receipt.AccountName,
		IssueDate:   receipt.IssueDate,
		Amount:      receipt.Amount,
	})

	return nil
}

// collect converts a recoverable error into an exception record and, when
// the receipt was already downloaded and parsed, files the PDF under the
// catch-all folder so it is not lost. Non-recoverable errors pass through.
func (r *Runner) collect(ctx context.Context, st *runState, url string, receipt *models.Receipt, err error) error {
	if !models.Recoverable(err) {
		return err
	}

	st.exceptions = append(st.exceptions, models.ExceptionRecord{
		SourceURL: url,
		Message:   err.Error(),
	})
	r.logger.Warn("Receipt skipped",
		zap.String("url", url),
		zap.Error(err))

	if receipt != nil {
		if _, archErr := r.archiver.Store(ctx, st.rootFolderID, r.cfg.CatchAllFolder,
			receipt.LocalPath, receipt.ID, receipt.IssueDate); archErr != nil {
			// Best effort only; losing the catch-all copy must not take
			// down the run.
			r.logger.Error("Catch-all archive failed",
				zap.String("url", url),
				zap.Error(archErr))
		}
	}

	return nil
}

// finishRun sends the operator digest when needed and persists the ledger
func (r *Runner) finishRun(ctx context.Context, st *runState) error {
	if len(st.exceptions) > 0 {
		if err := r.notifier.NotifyOperator(ctx, st.exceptions); err != nil {
			return err
		}
	}

	if err := st.ledger.Flush(ctx); err != nil {
		return err
	}

	for _, exc := range st.exceptions {
		st.result.Errors = append(st.result.Errors, exc.Line())
	}

	return nil
}

// cleanup removes the run's downloaded files
func (r *Runner) cleanup() {
	if err := r.extractor.CleanupWorkDir(); err != nil {
		r.logger.Warn("Failed to remove work dir", zap.Error(err))
	}
}

// record persists the run summary, best effort
func (r *Runner) record(ctx context.Context, trigger string, started time.Time, st *runState) {
	if r.recorder == nil {
		return
	}

	rec := models.RunRecord{
		Trigger:     trigger,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Sent:        len(st.result.Sent),
		AlreadySent: len(st.result.AlreadySent),
		Failed:      len(st.exceptions),
		ErrorLines:  st.result.Errors,
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		r.logger.Error("Failed to record run history", zap.Error(err))
	}
}

// Summary renders a short human summary of a run result
func Summary(res *models.RunResult) string {
	return fmt.Sprintf("sent=%d already_sent=%d errors=%d",
		len(res.Sent), len(res.AlreadySent), len(res.Errors))
}
