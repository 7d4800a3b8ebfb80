package models

import "fmt"

// The three recoverable failure kinds. Any of them aborts processing of the
// current receipt URL only; everything else aborts the whole run.

// DocumentFetchError means the receipt URL could not be fetched,
// typically because the short link expired.
type DocumentFetchError struct {
	URL string
	Err error
}

func (e *DocumentFetchError) Error() string {
	return fmt.Sprintf("url couldn't be opened, maybe it expired: %v", e.Err)
}

func (e *DocumentFetchError) Unwrap() error { return e.Err }

// LookupError means the donor could not be resolved against the roster:
// either the account name is absent, duplicated, or the matching row has no
// mail address on file.
type LookupError struct {
	AccountName string
	Reason      string
}

func (e *LookupError) Error() string { return e.Reason }

// SendRejectedError means the mail platform refused to send to the resolved
// address. The rejection reason is flattened to "address doesn't exist"
// regardless of what the platform actually reported.
type SendRejectedError struct {
	MailAddress string
	Err         error
}

func (e *SendRejectedError) Error() string {
	return fmt.Sprintf("%s doesn't exist", e.MailAddress)
}

func (e *SendRejectedError) Unwrap() error { return e.Err }

// Recoverable reports whether err is one of the three per-item failure
// kinds. The orchestrator catches exactly these; any other error is fatal
// to the run.
func Recoverable(err error) bool {
	switch err.(type) {
	case *DocumentFetchError, *LookupError, *SendRejectedError:
		return true
	}
	return false
}
