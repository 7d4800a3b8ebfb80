package google

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveService wraps the Drive API for folder lookup/creation and file upload
type DriveService struct {
	svc    *drive.Service
	logger *zap.Logger
}

// NewDriveService creates a new Drive wrapper
func NewDriveService(svc *drive.Service, logger *zap.Logger) *DriveService {
	return &DriveService{svc: svc, logger: logger}
}

// FindFolder looks up a folder by exact name, optionally scoped to a parent.
// Returns an empty id when no folder matches.
func (d *DriveService) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("mimeType='%s' and name='%s'", folderMimeType, escapeQueryValue(name))
	if parentID != "" {
		query = fmt.Sprintf("'%s' in parents and %s", parentID, query)
	}

	resp, err := d.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to query folder %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}

	return resp.Files[0].Id, nil
}

// CreateFolder creates a folder, optionally under a parent, and returns its id
func (d *DriveService) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	folder, err := d.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}

	d.logger.Debug("Created drive folder",
		zap.String("name", name),
		zap.String("folder_id", folder.Id))

	return folder.Id, nil
}

// UploadFile uploads content as a new file under the given parent folder.
// Drive allows several files with the same name; no overwrite detection.
func (d *DriveService) UploadFile(ctx context.Context, name, parentID, mimeType string, content io.Reader) (string, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}

	file, err := d.svc.Files.Create(meta).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload file %q: %w", name, err)
	}

	d.logger.Debug("Uploaded file to drive",
		zap.String("name", name),
		zap.String("file_id", file.Id))

	return file.Id, nil
}

// escapeQueryValue escapes single quotes for Drive query strings
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
