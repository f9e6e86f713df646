package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrRequirementsNotMet indicates a stage is not eligible to run.
	ErrRequirementsNotMet = errors.New("requirements not met")

	// ErrInvalidState indicates a status transition from a terminal
	// status. The caller must start a new version instead.
	ErrInvalidState = errors.New("invalid generation state")

	// ErrAlreadyPublished indicates a second publish attempt for one
	// generation. Regeneration creates a new version, never overwrites.
	ErrAlreadyPublished = errors.New("generation already published")

	// ErrContentConversion indicates response text could not be turned
	// into document blocks. Local; nothing external has been touched.
	ErrContentConversion = errors.New("content conversion failed")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	// The publication coordinator retries these with bounded backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthInvalid indicates external credentials are invalid. Never
	// retried; permanent until configuration is fixed.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrConsistency indicates an invariant guaranteed by an earlier
	// check was found violated. A defect, not a user-facing condition.
	ErrConsistency = errors.New("internal consistency fault")
)

// RequirementsNotMetError carries the ordered list of missing requirements
// for a stage. Entries are human-readable labels: material kinds in
// declaration order, then the prior-stage entry last.
type RequirementsNotMetError struct {
	Stage   Stage
	Missing []string
}

func (e *RequirementsNotMetError) Error() string {
	return fmt.Sprintf("cannot generate %s: missing %s", e.Stage, strings.Join(e.Missing, ", "))
}

func (e *RequirementsNotMetError) Unwrap() error { return ErrRequirementsNotMet }

// InvalidStateError reports a transition attempted on a generation that is
// not PENDING.
type InvalidStateError struct {
	GenerationID string
	Status       GenerationStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("generation %s is %s, not PENDING", e.GenerationID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ExternalServiceError wraps a failure from one of the external
// collaborators, identifying which service and operation failed.
type ExternalServiceError struct {
	// Service is "notion" or "drive".
	Service string

	// Op is the operation that failed (e.g., "create page").
	Op string

	// Err is the underlying error. May wrap ErrRateLimited or
	// ErrAuthInvalid for classification.
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// PublishStep identifies which step of the publication algorithm failed.
type PublishStep string

const (
	// StepConvert is the local markdown-to-blocks transformation.
	StepConvert PublishStep = "convert"

	// StepCreatePage is the document-store page creation.
	StepCreatePage PublishStep = "create page"

	// StepUploadBackup is the backup-store file upload.
	StepUploadBackup PublishStep = "upload backup"

	// StepRecord is the local persistence of the resulting references.
	StepRecord PublishStep = "record publication"
)

// PublishError reports a failed publication, including which step failed
// and whether manual cleanup is required.
type PublishError struct {
	GenerationID string
	Step         PublishStep
	Err          error

	// OrphanedPageID names a document-store page that was created but
	// could not be compensated away. It must be removed manually.
	OrphanedPageID string

	// ExternalArtifactsKept is true when both external writes succeeded
	// but the local record update failed. The generation is externally
	// published yet not locally recorded; no automatic compensation is
	// attempted to avoid duplicate pages.
	ExternalArtifactsKept bool
}

func (e *PublishError) Error() string {
	msg := fmt.Sprintf("publish generation %s: step %q failed: %v", e.GenerationID, e.Step, e.Err)
	if e.OrphanedPageID != "" {
		msg += fmt.Sprintf("; manual cleanup required for document page %s", e.OrphanedPageID)
	}
	if e.ExternalArtifactsKept {
		msg += "; external page and backup exist but are not recorded locally, resolve manually"
	}
	return msg
}

func (e *PublishError) Unwrap() error { return e.Err }

// ConsistencyError wraps ErrConsistency with detail about the violated
// invariant.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency fault: %s", e.Detail)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// IsRateLimited reports whether err is classified as a rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
