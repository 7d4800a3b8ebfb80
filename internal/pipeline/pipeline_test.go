package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

type mockExtractor struct {
	extractFunc  func(ctx context.Context, url string) (*models.Receipt, error)
	prepareCalls int
	cleanupCalls int
}

func (m *mockExtractor) PrepareWorkDir() error { m.prepareCalls++; return nil }
func (m *mockExtractor) CleanupWorkDir() error { m.cleanupCalls++; return nil }
func (m *mockExtractor) Extract(ctx context.Context, url string) (*models.Receipt, error) {
	return m.extractFunc(ctx, url)
}

type mockRoster struct {
	lookupFunc func(accountName string) (*models.RosterEntry, error)
}

func (m *mockRoster) Lookup(accountName string) (*models.RosterEntry, error) {
	return m.lookupFunc(accountName)
}

type mockLedger struct {
	known    map[string]bool
	appended []models.PaymentRecord
	flushed  bool
	flushErr error
}

func (m *mockLedger) Contains(id string) bool { return m.known[id] }
func (m *mockLedger) Append(rec models.PaymentRecord) {
	m.appended = append(m.appended, rec)
}
func (m *mockLedger) Flush(ctx context.Context) error {
	m.flushed = true
	return m.flushErr
}

type mockNotifier struct {
	donorFunc   func(ctx context.Context, mailAddress string, receipt *models.Receipt) error
	donorSends  []string
	digests     [][]models.ExceptionRecord
	operatorErr error
}

func (m *mockNotifier) NotifyDonor(ctx context.Context, mailAddress string, receipt *models.Receipt) error {
	if m.donorFunc != nil {
		if err := m.donorFunc(ctx, mailAddress, receipt); err != nil {
			return err
		}
	}
	m.donorSends = append(m.donorSends, mailAddress)
	return nil
}

func (m *mockNotifier) NotifyOperator(ctx context.Context, records []models.ExceptionRecord) error {
	if m.operatorErr != nil {
		return m.operatorErr
	}
	m.digests = append(m.digests, records)
	return nil
}

type storedFile struct {
	folderName string
	receiptID  string
}

type mockArchiver struct {
	stored   []storedFile
	storeErr error
}

func (m *mockArchiver) EnsureRootFolder(ctx context.Context) (string, error) {
	return "root-id", nil
}

func (m *mockArchiver) Store(ctx context.Context, rootFolderID, donorName, localPath, receiptID, issueDate string) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	m.stored = append(m.stored, storedFile{folderName: donorName, receiptID: receiptID})
	return fmt.Sprintf("file-%d", len(m.stored)), nil
}

type mockLoader struct {
	roster RosterLookup
	ledger PaymentLedger
}

func (m *mockLoader) LoadRoster(ctx context.Context) (RosterLookup, error) { return m.roster, nil }
func (m *mockLoader) LoadLedger(ctx context.Context) (PaymentLedger, error) { return m.ledger, nil }

type mockMailbox struct {
	messages map[string]string
	order    []string
	swaps    [][3]string
}

func (m *mockMailbox) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	return m.order, nil
}

func (m *mockMailbox) MessageBody(ctx context.Context, messageID string) (string, error) {
	return m.messages[messageID], nil
}

func (m *mockMailbox) SwapLabels(ctx context.Context, messageID, addLabelID, removeLabelID string) error {
	m.swaps = append(m.swaps, [3]string{messageID, addLabelID, removeLabelID})
	return nil
}

type mockRecorder struct {
	records []models.RunRecord
}

func (m *mockRecorder) Record(ctx context.Context, rec models.RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func testConfig() Config {
	return Config{
		URLPrefix:      "https://mrng.to/",
		CatchAllFolder: "NOT_SENT",
		MailboxQuery:   "label:for_automation/to_send",
		ToSendLabelID:  "Label_1",
		SentLabelID:    "Label_2",
	}
}

// receiptFor fabricates a parsed receipt whose id is derived from the url
// suffix, so tests can predict ledger keys.
func receiptFor(url string) *models.Receipt {
	id := url[len("https://mrng.to/"):]
	return &models.Receipt{
		ID:          id,
		AccountName: "cohen family",
		IssueDate:   "01/02/2024",
		Amount:      "250",
		SourceURL:   url,
		LocalPath:   "/tmp/" + id + ".pdf",
	}
}

type fixture struct {
	runner    *Runner
	extractor *mockExtractor
	roster    *mockRoster
	ledger    *mockLedger
	notifier  *mockNotifier
	archiver  *mockArchiver
	mailbox   *mockMailbox
	recorder  *mockRecorder
}

func newFixture() *fixture {
	f := &fixture{
		extractor: &mockExtractor{
			extractFunc: func(ctx context.Context, url string) (*models.Receipt, error) {
				return receiptFor(url), nil
			},
		},
		roster: &mockRoster{
			lookupFunc: func(accountName string) (*models.RosterEntry, error) {
				return &models.RosterEntry{
					AccountName: accountName,
					DisplayName: "משפחת כהן",
					MailAddress: "cohen@example.com",
				}, nil
			},
		},
		ledger:   &mockLedger{known: map[string]bool{}},
		notifier: &mockNotifier{},
		archiver: &mockArchiver{},
		mailbox:  &mockMailbox{},
		recorder: &mockRecorder{},
	}
	f.runner = NewRunner(testConfig(),
		f.extractor, f.notifier, f.archiver, f.mailbox,
		&mockLoader{roster: f.roster, ledger: f.ledger},
		f.recorder, zap.NewNop())
	return f
}

func TestRunFromText_Buckets(t *testing.T) {
	f := newFixture()
	f.ledger.known["abc"] = true

	text := "receipts below\nhttps://mrng.to/abc\nthanks https://mrng.to/def\nhttps://elsewhere.example.com/x"
	res, err := f.runner.RunFromText(context.Background(), text, TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://mrng.to/abc"}, res.AlreadySent)
	assert.Equal(t, []string{"https://mrng.to/def"}, res.Sent)
	assert.Empty(t, res.Errors)

	// Only the fresh receipt is mailed and archived.
	assert.Equal(t, []string{"cohen@example.com"}, f.notifier.donorSends)
	require.Len(t, f.archiver.stored, 1)
	assert.Equal(t, "משפחת כהן", f.archiver.stored[0].folderName)
	assert.Equal(t, "def", f.archiver.stored[0].receiptID)

	// Both outcomes land in the ledger, which is then flushed.
	require.Len(t, f.ledger.appended, 2)
	assert.Equal(t, "abc", f.ledger.appended[0].ID)
	assert.Equal(t, "def", f.ledger.appended[1].ID)
	assert.True(t, f.ledger.flushed)

	// No exceptions means no operator digest.
	assert.Empty(t, f.notifier.digests)

	assert.Equal(t, 1, f.extractor.prepareCalls)
	assert.Equal(t, 1, f.extractor.cleanupCalls)
}

func TestRunFromText_FetchFailureCollected(t *testing.T) {
	f := newFixture()
	f.extractor.extractFunc = func(ctx context.Context, url string) (*models.Receipt, error) {
		if url == "https://mrng.to/bad" {
			return nil, &models.DocumentFetchError{URL: url, Err: errors.New("status 404")}
		}
		return receiptFor(url), nil
	}

	res, err := f.runner.RunFromText(context.Background(),
		"https://mrng.to/bad https://mrng.to/good", TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://mrng.to/good"}, res.Sent)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "https://mrng.to/bad - ")
	assert.Contains(t, res.Errors[0], "couldn't be opened")

	// Nothing was downloaded for the bad url, so no catch-all copy exists.
	require.Len(t, f.archiver.stored, 1)
	assert.Equal(t, "משפחת כהן", f.archiver.stored[0].folderName)

	// The digest carries exactly the failed url.
	require.Len(t, f.notifier.digests, 1)
	require.Len(t, f.notifier.digests[0], 1)
	assert.Equal(t, "https://mrng.to/bad", f.notifier.digests[0][0].SourceURL)

	// Failed receipts never reach the ledger.
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, "good", f.ledger.appended[0].ID)
}

func TestRunFromText_LookupFailureArchivedToCatchAll(t *testing.T) {
	f := newFixture()
	f.roster.lookupFunc = func(accountName string) (*models.RosterEntry, error) {
		return nil, &models.LookupError{
			AccountName: accountName,
			Reason:      accountName + " doesn't appear in the google sheet",
		}
	}

	res, err := f.runner.RunFromText(context.Background(), "https://mrng.to/abc", TriggerManual)
	require.NoError(t, err)

	assert.Empty(t, res.Sent)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "https://mrng.to/abc - cohen family doesn't appear in the google sheet", res.Errors[0])

	// The downloaded PDF is preserved under the catch-all folder.
	require.Len(t, f.archiver.stored, 1)
	assert.Equal(t, "NOT_SENT", f.archiver.stored[0].folderName)

	assert.Empty(t, f.notifier.donorSends)
	assert.Empty(t, f.ledger.appended)
	assert.True(t, f.ledger.flushed)
}

func TestRunFromText_SendRejectionCollected(t *testing.T) {
	f := newFixture()
	f.notifier.donorFunc = func(ctx context.Context, mailAddress string, receipt *models.Receipt) error {
		return &models.SendRejectedError{MailAddress: mailAddress, Err: errors.New("rejected")}
	}

	res, err := f.runner.RunFromText(context.Background(), "https://mrng.to/abc", TriggerManual)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "https://mrng.to/abc - cohen@example.com doesn't exist", res.Errors[0])
	require.Len(t, f.archiver.stored, 1)
	assert.Equal(t, "NOT_SENT", f.archiver.stored[0].folderName)
	assert.Empty(t, f.ledger.appended)
}

func TestRunFromText_UnexpectedErrorIsFatal(t *testing.T) {
	f := newFixture()
	f.extractor.extractFunc = func(ctx context.Context, url string) (*models.Receipt, error) {
		return nil, errors.New("work dir vanished")
	}

	_, err := f.runner.RunFromText(context.Background(), "https://mrng.to/abc", TriggerManual)
	require.Error(t, err)
	assert.Equal(t, "work dir vanished", err.Error())

	// The run aborted before the digest and flush.
	assert.Empty(t, f.notifier.digests)
	assert.False(t, f.ledger.flushed)
	// Temp files are still removed on the way out.
	assert.Equal(t, 1, f.extractor.cleanupCalls)
}

func TestRunFromText_RecordsHistory(t *testing.T) {
	f := newFixture()
	f.ledger.known["abc"] = true

	_, err := f.runner.RunFromText(context.Background(),
		"https://mrng.to/abc https://mrng.to/def", TriggerAPI)
	require.NoError(t, err)

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, TriggerAPI, rec.Trigger)
	assert.Equal(t, 1, rec.Sent)
	assert.Equal(t, 1, rec.AlreadySent)
	assert.Equal(t, 0, rec.Failed)
	assert.False(t, rec.FinishedAt.Before(rec.StartedAt))
}

func TestRunFromMailbox(t *testing.T) {
	f := newFixture()
	f.mailbox.order = []string{"msg-1", "msg-2"}
	f.mailbox.messages = map[string]string{
		"msg-1": "הקבלות מצורפות\nhttps://mrng.to/abc",
		"msg-2": "https://mrng.to/def וגם https://mrng.to/ghi",
	}

	res, err := f.runner.RunFromMailbox(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://mrng.to/abc", "https://mrng.to/def", "https://mrng.to/ghi"}, res.Sent)

	// Every message gets its label swapped from to-send to sent.
	require.Len(t, f.mailbox.swaps, 2)
	assert.Equal(t, [3]string{"msg-1", "Label_2", "Label_1"}, f.mailbox.swaps[0])
	assert.Equal(t, [3]string{"msg-2", "Label_2", "Label_1"}, f.mailbox.swaps[1])
}

func TestRunFromMailbox_LabelSwappedDespiteFailures(t *testing.T) {
	f := newFixture()
	f.mailbox.order = []string{"msg-1"}
	f.mailbox.messages = map[string]string{"msg-1": "https://mrng.to/bad"}
	f.extractor.extractFunc = func(ctx context.Context, url string) (*models.Receipt, error) {
		return nil, &models.DocumentFetchError{URL: url, Err: errors.New("expired")}
	}

	res, err := f.runner.RunFromMailbox(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	require.Len(t, f.mailbox.swaps, 1)
}

func TestDiscoverURLs(t *testing.T) {
	text := "שלום\nhttps://mrng.to/abc ותודה\nhttps://example.com/no https://mrng.to/def\nhttps://mrng.to/abc"
	urls := DiscoverURLs(text, "https://mrng.to/")

	// Order preserved, duplicates kept; dedup is the ledger's job.
	assert.Equal(t, []string{"https://mrng.to/abc", "https://mrng.to/def", "https://mrng.to/abc"}, urls)
}

func TestDiscoverURLs_Empty(t *testing.T) {
	assert.Empty(t, DiscoverURLs("no links here", "https://mrng.to/"))
}

func TestSummary(t *testing.T) {
	res := &models.RunResult{
		Sent:        []string{"a", "b"},
		AlreadySent: []string{"c"},
	}
	assert.Equal(t, "sent=2 already_sent=1 errors=0", Summary(res))
}
