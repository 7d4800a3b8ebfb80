package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	e := New(filepath.Join(t.TempDir(), "tmp_pdfs"), zap.NewNop())
	require.NoError(t, e.PrepareWorkDir())
	t.Cleanup(func() { e.CleanupWorkDir() })
	return e
}

func TestExtract_ExpiredLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := testExtractor(t)
	_, err := e.Extract(context.Background(), srv.URL+"/expired")
	require.Error(t, err)

	var fetchErr *models.DocumentFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "url couldn't be opened, maybe it expired")
	assert.True(t, models.Recoverable(err))
}

func TestExtract_UnreachableHost(t *testing.T) {
	e := testExtractor(t)
	_, err := e.Extract(context.Background(), "http://127.0.0.1:1/receipt")
	require.Error(t, err)

	var fetchErr *models.DocumentFetchError
	require.True(t, errors.As(err, &fetchErr))
}

func TestExtract_NotAPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not a pdf</html>"))
	}))
	defer srv.Close()

	e := testExtractor(t)
	_, err := e.Extract(context.Background(), srv.URL+"/receipt")
	require.Error(t, err)

	// A malformed document is a layout problem, not a fetch problem, and
	// must abort the run.
	assert.False(t, models.Recoverable(err))
}

func TestPrepareWorkDir_DiscardsLeftovers(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "tmp_pdfs")
	e := New(workDir, zap.NewNop())

	require.NoError(t, e.PrepareWorkDir())
	leftover := filepath.Join(workDir, "stale.pdf")
	require.NoError(t, os.WriteFile(leftover, []byte("old"), 0o644))

	require.NoError(t, e.PrepareWorkDir())
	_, err := os.Stat(leftover)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, e.CleanupWorkDir())
	_, err = os.Stat(workDir)
	assert.True(t, os.IsNotExist(err))
}
