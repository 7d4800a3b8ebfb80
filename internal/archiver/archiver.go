// Package archiver files receipt PDFs into a folder-per-donor tree on the
// storage platform.
package archiver

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const pdfMimeType = "application/pdf"

// DriveAPI is the slice of the storage platform the archiver needs
type DriveAPI interface {
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	UploadFile(ctx context.Context, name, parentID, mimeType string, content io.Reader) (string, error)
}

// Archiver uploads receipt files into per-donor subfolders of one root
// folder. Folders are matched by exact name within their parent; there is no
// stable key, so an external rename makes the next run create a fresh folder.
type Archiver struct {
	drive      DriveAPI
	rootFolder string
	logger     *zap.Logger
}

// New creates a new archiver rooted at the named top-level folder
func New(drive DriveAPI, rootFolder string, logger *zap.Logger) *Archiver {
	return &Archiver{
		drive:      drive,
		rootFolder: rootFolder,
		logger:     logger,
	}
}

// EnsureRootFolder returns the id of the top-level receipts folder,
// creating it when absent
func (a *Archiver) EnsureRootFolder(ctx context.Context) (string, error) {
	return a.ensureFolder(ctx, a.rootFolder, "")
}

// Store uploads the local receipt file into the donor's subfolder under
// rootFolderID, creating the subfolder when absent. The uploaded file is
// named <receipt id>.<issue date>.pdf. Re-storing the same receipt creates a
// second file object; uploads are not deduplicated.
func (a *Archiver) Store(ctx context.Context, rootFolderID, donorName, localPath, receiptID, issueDate string) (string, error) {
	folderID, err := a.ensureFolder(ctx, donorName, rootFolderID)
	if err != nil {
		return "", err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open receipt file: %w", err)
	}
	defer file.Close()

	fileName := fmt.Sprintf("%s.%s.pdf", receiptID, issueDate)
	fileID, err := a.drive.UploadFile(ctx, fileName, folderID, pdfMimeType, file)
	if err != nil {
		return "", err
	}

	a.logger.Info("Receipt archived",
		zap.String("donor", donorName),
		zap.String("file_name", fileName),
		zap.String("file_id", fileID))

	return fileID, nil
}

// ensureFolder finds a folder by exact name under parentID or creates it
func (a *Archiver) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := a.drive.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return a.drive.CreateFolder(ctx, name, parentID)
}
