package notifier

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

type mockSender struct {
	sent    [][]byte
	sendErr error
}

func (m *mockSender) SendRaw(ctx context.Context, raw []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, raw)
	return nil
}

func testReceipt() *models.Receipt {
	return &models.Receipt{
		ID:          "12345",
		AccountName: "cohen family",
		IssueDate:   "01/02/2024",
		Amount:      "250",
		SourceURL:   "https://mrng.to/abc123",
	}
}

// decodeBody extracts and decodes the base64 text body of a single-part
// message.
func decodeBody(t *testing.T, raw []byte) string {
	t.Helper()
	parts := strings.SplitN(string(raw), "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	body, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	return string(body)
}

func TestNotifyDonor_LinkVariant(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, Config{From: "bot@example.com", OperatorAddr: "op@example.com"}, zap.NewNop())

	err := n.NotifyDonor(context.Background(), "donor@example.com", testReceipt())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	raw := string(sender.sent[0])
	assert.Contains(t, raw, "From: bot@example.com\r\n")
	assert.Contains(t, raw, "To: donor@example.com\r\n")
	assert.Contains(t, raw, "Subject: =?UTF-8?")

	body := decodeBody(t, sender.sent[0])
	assert.Contains(t, body, "12345")
	assert.Contains(t, body, "250")
	assert.Contains(t, body, "01/02/2024")
	assert.Contains(t, body, "https://mrng.to/abc123")
}

func TestNotifyDonor_AttachVariant(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, Config{From: "bot@example.com", AttachReceipt: true}, zap.NewNop())

	receipt := testReceipt()
	receipt.LocalPath = filepath.Join(t.TempDir(), "r.pdf")
	require.NoError(t, os.WriteFile(receipt.LocalPath, []byte("pdf bytes"), 0o644))

	err := n.NotifyDonor(context.Background(), "donor@example.com", receipt)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	raw := string(sender.sent[0])
	assert.Contains(t, raw, "Content-Type: multipart/mixed")
	assert.Contains(t, raw, `filename="receipt12345.pdf"`)
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte("pdf bytes")))
}

func TestNotifyDonor_AttachVariantMissingFile(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, Config{From: "bot@example.com", AttachReceipt: true}, zap.NewNop())

	receipt := testReceipt()
	receipt.LocalPath = "/nonexistent/r.pdf"

	err := n.NotifyDonor(context.Background(), "donor@example.com", receipt)
	require.Error(t, err)
	assert.False(t, models.Recoverable(err))
	assert.Empty(t, sender.sent)
}

func TestNotifyDonor_PlatformRejection(t *testing.T) {
	sender := &mockSender{sendErr: &googleapi.Error{Code: 400, Message: "invalid recipient"}}
	n := New(sender, Config{From: "bot@example.com"}, zap.NewNop())

	err := n.NotifyDonor(context.Background(), "bogus@example.com", testReceipt())
	require.Error(t, err)

	var rejErr *models.SendRejectedError
	require.True(t, errors.As(err, &rejErr))
	assert.Equal(t, "bogus@example.com doesn't exist", rejErr.Error())
	assert.True(t, models.Recoverable(err))
}

func TestNotifyDonor_TransportFailure(t *testing.T) {
	sender := &mockSender{sendErr: errors.New("connection reset")}
	n := New(sender, Config{From: "bot@example.com"}, zap.NewNop())

	err := n.NotifyDonor(context.Background(), "donor@example.com", testReceipt())
	require.Error(t, err)
	assert.False(t, models.Recoverable(err))
}

func TestNotifyOperator(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, Config{From: "bot@example.com", OperatorAddr: "op@example.com"}, zap.NewNop())

	records := []models.ExceptionRecord{
		{SourceURL: "https://mrng.to/abc", Message: "url couldn't be opened, maybe it expired: 404"},
		{SourceURL: "https://mrng.to/def", Message: "cohen family doesn't appear in the google sheet"},
	}

	err := n.NotifyOperator(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	raw := string(sender.sent[0])
	assert.Contains(t, raw, "To: op@example.com\r\n")

	body := decodeBody(t, sender.sent[0])
	assert.Equal(t,
		"https://mrng.to/abc - url couldn't be opened, maybe it expired: 404\n"+
			"https://mrng.to/def - cohen family doesn't appear in the google sheet\n\n#exception",
		body)
}

func TestNotifyOperator_SendFailure(t *testing.T) {
	sender := &mockSender{sendErr: errors.New("quota exceeded")}
	n := New(sender, Config{From: "bot@example.com", OperatorAddr: "op@example.com"}, zap.NewNop())

	err := n.NotifyOperator(context.Background(), []models.ExceptionRecord{{SourceURL: "https://mrng.to/abc", Message: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send exception digest")
}
