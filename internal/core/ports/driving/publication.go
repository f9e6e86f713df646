package driving

import "context"

// PublishResult carries the external references of a published generation.
type PublishResult struct {
	// DocumentURL is the created document-store page URL.
	DocumentURL string

	// BackupURL is the uploaded backup file URL.
	BackupURL string
}

// PublicationService turns a completed generation's response into durable
// external artifacts: a document-store page and a backup file.
//
// Publish runs four ordered steps (convert, create page, upload backup,
// record references). A failure aborts and reports which step failed. If
// the backup upload fails after the page was created, the page is deleted
// as best-effort compensation; if the local record update fails after both
// external writes, the artifacts are kept and the caller is told to
// resolve manually. Rate-limit responses from either external service are
// retried internally with bounded backoff; auth and validation failures
// propagate immediately.
type PublicationService interface {
	// Publish publishes the COMPLETED, not-yet-published generation into
	// the given document database. Publishing twice is rejected with
	// domain.ErrAlreadyPublished; a new version must be generated
	// instead.
	Publish(ctx context.Context, generationID, databaseID string) (*PublishResult, error)
}
