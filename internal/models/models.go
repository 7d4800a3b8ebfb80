package models

import "time"

// Receipt holds the fields scraped from one donation receipt PDF.
// It is produced by the extractor and consumed within the same run;
// only the summary fields flow into the payments ledger.
type Receipt struct {
	ID          string `json:"id"`
	AccountName string `json:"account_name"`
	IssueDate   string `json:"issue_date"`
	Amount      string `json:"amount"`

	// SourceURL is the short link the PDF was fetched from.
	SourceURL string `json:"source_url"`

	// LocalPath is the temporary file the PDF was downloaded to.
	// Valid until the run's working directory is removed.
	LocalPath string `json:"-"`
}

// RosterEntry is one row of the externally maintained donor roster.
type RosterEntry struct {
	AccountName string `json:"account_name"`
	DisplayName string `json:"name"`
	MailAddress string `json:"mail"`
}

// PaymentRecord is one row of the processed-payments ledger.
// ID is the dedup key.
type PaymentRecord struct {
	ID          string `json:"id"`
	AccountName string `json:"name"`
	IssueDate   string `json:"date"`
	Amount      string `json:"amount"`
}

// ExceptionRecord captures a per-URL failure for the operator digest.
// Collected for the duration of one run, never persisted.
type ExceptionRecord struct {
	SourceURL string `json:"source_url"`
	Message   string `json:"message"`
}

// Line renders the record the way it appears in the operator digest.
func (e ExceptionRecord) Line() string {
	return e.SourceURL + " - " + e.Message
}

// RunResult buckets the per-URL outcomes of one pipeline run.
type RunResult struct {
	Sent        []string `json:"sent"`
	AlreadySent []string `json:"already_sent"`
	Errors      []string `json:"error"`
}

// RunRecord summarizes one finished run for the local history store.
type RunRecord struct {
	Trigger     string    `json:"trigger"` // manual, api or scheduled
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Sent        int       `json:"sent"`
	AlreadySent int       `json:"already_sent"`
	Failed      int       `json:"failed"`
	ErrorLines  []string  `json:"error_lines,omitempty"`
}
