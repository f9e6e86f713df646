// Package drive implements the backup store port against the Google
// Drive API.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure BackupStore implements the interface.
var _ driven.BackupStore = (*BackupStore)(nil)

const folderMimeType = "application/vnd.google-apps.folder"

// BackupStore uploads backup files to Google Drive, organised in a folder
// hierarchy mirroring the collection/unit structure.
type BackupStore struct {
	service *drive.Service
}

// NewBackupStore creates a backup store using the provided token source.
func NewBackupStore(ctx context.Context, ts oauth2.TokenSource) (*BackupStore, error) {
	service, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &BackupStore{service: service}, nil
}

// EnsureFolderPath walks the segments, reusing existing folders and
// creating missing ones. Idempotent; returns the ID of the last segment.
func (s *BackupStore) EnsureFolderPath(ctx context.Context, segments []string) (string, error) {
	var parentID string
	for _, name := range segments {
		id, err := s.getOrCreateFolder(ctx, name, parentID)
		if err != nil {
			return "", err
		}
		parentID = id
	}
	return parentID, nil
}

// UploadFile uploads content into the folder and returns the file ID and
// view URL.
func (s *BackupStore) UploadFile(ctx context.Context, folderRef, fileName string, content []byte) (string, string, error) {
	meta := &drive.File{
		Name:    fileName,
		Parents: []string{folderRef},
	}

	file, err := s.service.Files.Create(meta).
		Media(bytes.NewReader(content)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", "", wrapError("upload file", err)
	}

	logger.Debug("uploaded %s (%d bytes) to drive folder %s", fileName, len(content), folderRef)
	return file.Id, file.WebViewLink, nil
}

// TrashFile moves a file to the trash. Trashing, not deleting, keeps the
// file recoverable from the Drive UI for thirty days.
func (s *BackupStore) TrashFile(ctx context.Context, fileID string) error {
	_, err := s.service.Files.Update(fileID, &drive.File{Trashed: true}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("trash file", err)
	}
	return nil
}

// getOrCreateFolder finds a non-trashed folder by name under the parent,
// creating it when absent.
func (s *BackupStore) getOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	list, err := s.service.Files.List().
		Q(query).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("list folders", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	folder, err := s.service.Files.Create(meta).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("create folder", err)
	}

	logger.Debug("created drive folder %q (%s)", name, folder.Id)
	return folder.Id, nil
}

// escapeQuery escapes single quotes in Drive query string values.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
