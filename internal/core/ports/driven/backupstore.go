package driven

import "context"

// BackupStore writes files to the external backup service.
//
// Rate-limit failures wrap domain.ErrRateLimited; auth failures wrap
// domain.ErrAuthInvalid and are never retried.
type BackupStore interface {
	// EnsureFolderPath resolves the folder at the given path segments,
	// creating missing intermediate folders. Idempotent: repeated calls
	// for the same path return the same folder, never a duplicate.
	EnsureFolderPath(ctx context.Context, segments []string) (folderRef string, err error)

	// UploadFile writes content into the folder under fileName.
	UploadFile(ctx context.Context, folderRef, fileName string, content []byte) (fileRef, fileURL string, err error)

	// TrashFile moves an uploaded file to the service's trash, keeping it
	// recoverable. Used as compensation when a local write fails after
	// the upload succeeded.
	TrashFile(ctx context.Context, fileRef string) error
}
