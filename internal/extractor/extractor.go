package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// Extractor downloads a receipt PDF and scrapes its fields from the first
// page text. The receipt template is fixed; the anchors in fields.go are the
// ground truth for its layout.
type Extractor struct {
	httpClient *http.Client
	workDir    string
	logger     *zap.Logger
}

// New creates a new receipt extractor writing downloads under workDir
func New(workDir string, logger *zap.Logger) *Extractor {
	return &Extractor{
		httpClient: http.DefaultClient,
		workDir:    workDir,
		logger:     logger,
	}
}

// PrepareWorkDir recreates the working directory for a fresh run.
// Leftovers from a previous run are discarded.
func (e *Extractor) PrepareWorkDir() error {
	if err := os.RemoveAll(e.workDir); err != nil {
		return fmt.Errorf("failed to clear work dir: %w", err)
	}
	if err := os.MkdirAll(e.workDir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	return nil
}

// CleanupWorkDir removes the working directory and every downloaded PDF
func (e *Extractor) CleanupWorkDir() error {
	return os.RemoveAll(e.workDir)
}

// Extract fetches the receipt PDF behind url and returns its scraped fields.
// A fetch failure is recoverable (*models.DocumentFetchError); a layout
// mismatch is not and aborts the run.
func (e *Extractor) Extract(ctx context.Context, url string) (*models.Receipt, error) {
	localPath, data, err := e.download(ctx, url)
	if err != nil {
		return nil, err
	}

	text, err := firstPageText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt pdf from %s: %w", url, err)
	}

	fields, err := ParseReceiptText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt from %s: %w", url, err)
	}

	e.logger.Info("Extracted receipt",
		zap.String("receipt_id", fields.ID),
		zap.String("account_name", fields.AccountName),
		zap.String("issue_date", fields.IssueDate),
		zap.String("amount", fields.Amount))

	fields.SourceURL = url
	fields.LocalPath = localPath
	return fields, nil
}

// download writes the PDF behind url to a uniquely named file in the work dir
func (e *Extractor) download(ctx context.Context, url string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", nil, &models.DocumentFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, &models.DocumentFetchError{
			URL: url,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &models.DocumentFetchError{URL: url, Err: err}
	}

	localPath := filepath.Join(e.workDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	e.logger.Debug("Downloaded receipt",
		zap.String("url", url),
		zap.String("path", localPath),
		zap.Int("size", len(data)))

	return localPath, data, nil
}

// firstPageText extracts the plain text of the first PDF page
func firstPageText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	text, err := doc.Text(0)
	if err != nil {
		return "", fmt.Errorf("failed to extract page text: %w", err)
	}

	return text, nil
}
