package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure PublicationService implements the interface.
var _ driving.PublicationService = (*PublicationService)(nil)

const (
	// maxRetryAttempts bounds rate-limit retries per external call.
	maxRetryAttempts = 3

	// initialBackoff is the first retry delay; doubled per attempt.
	initialBackoff = 2 * time.Second
)

// PublicationService turns completed generations into durable external
// artifacts: a document-store page and a backup file.
type PublicationService struct {
	collections driven.CollectionStore
	units       driven.StudyUnitStore
	generations driven.GenerationStore
	publisher   driven.DocumentPublisher
	backup      driven.BackupStore

	// rootFolder is the top-level backup folder the per-collection
	// hierarchy is created under. May be empty.
	rootFolder string

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPublicationService creates a new publication coordinator.
// rootFolder names the top-level backup folder (e.g., "StudyFlow").
func NewPublicationService(
	collections driven.CollectionStore,
	units driven.StudyUnitStore,
	generations driven.GenerationStore,
	publisher driven.DocumentPublisher,
	backup driven.BackupStore,
	rootFolder string,
) *PublicationService {
	return &PublicationService{
		collections: collections,
		units:       units,
		generations: generations,
		publisher:   publisher,
		backup:      backup,
		rootFolder:  rootFolder,
		sleep:       sleepCtx,
	}
}

// Publish runs the four-step publication algorithm:
//
//  1. Convert the response markdown into document blocks (local).
//  2. Create the document-store page.
//  3. Upload the raw markdown as a backup file.
//  4. Record both references on the generation.
//
// If step 3 fails after step 2 created a page, the page is deleted as
// best-effort compensation; a failed compensation names the orphaned page
// in the returned error. If step 4 fails, both external artifacts are kept
// and the error says the generation must be reconciled manually - deleting
// and re-creating would risk duplicate pages.
func (s *PublicationService) Publish(ctx context.Context, generationID, databaseID string) (*driving.PublishResult, error) {
	if s.publisher == nil || s.backup == nil {
		return nil, domain.ErrNotImplemented
	}

	gen, err := s.generations.Get(ctx, generationID)
	if err != nil {
		return nil, fmt.Errorf("loading generation %s: %w", generationID, err)
	}
	if gen.Published() {
		return nil, fmt.Errorf("generation %s: %w", generationID, domain.ErrAlreadyPublished)
	}
	if gen.Status != domain.StatusCompleted {
		return nil, &domain.InvalidStateError{GenerationID: generationID, Status: gen.Status}
	}
	if gen.ResponseText == "" {
		return nil, &domain.ConsistencyError{
			Detail: fmt.Sprintf("generation %s is COMPLETED but has no response text", generationID),
		}
	}

	unit, err := s.units.Get(ctx, gen.StudyUnitID)
	if err != nil {
		return nil, fmt.Errorf("resolving study unit %s: %w", gen.StudyUnitID, err)
	}
	collection, err := s.collections.Get(ctx, unit.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("resolving collection %s: %w", unit.CollectionID, err)
	}
	if databaseID == "" {
		databaseID = collection.DatabaseID
	}
	if databaseID == "" {
		return nil, fmt.Errorf("no document database configured for collection %s: %w", collection.ID, domain.ErrInvalidInput)
	}

	// Step 1: local conversion. Nothing external has been touched yet.
	blocks, err := s.publisher.ConvertMarkdown(gen.ResponseText)
	if err != nil {
		return nil, &domain.PublishError{GenerationID: generationID, Step: domain.StepConvert, Err: err}
	}

	// Step 2: create the page.
	title := fmt.Sprintf("%s - %s - %s", collection.Name, unit.Name, gen.Stage)
	props := driven.PageProperties{
		Topic:   unit.Name,
		Stage:   string(gen.Stage),
		Version: gen.Version,
		Status:  "Current",
	}

	var pageID, pageURL string
	err = s.withRetry(ctx, func() error {
		var err error
		pageID, pageURL, err = s.publisher.CreatePage(ctx, databaseID, title, props, blocks)
		return err
	})
	if err != nil {
		return nil, &domain.PublishError{GenerationID: generationID, Step: domain.StepCreatePage, Err: err}
	}

	// Step 3: upload the backup. On failure, compensate by removing the
	// page so no orphan outlives the failed publish.
	backupRef, backupURL, err := s.uploadBackup(ctx, collection, unit, gen)
	if err != nil {
		pubErr := &domain.PublishError{GenerationID: generationID, Step: domain.StepUploadBackup, Err: err}
		if delErr := s.publisher.DeletePage(ctx, pageID); delErr != nil {
			logger.Warn("compensating page delete failed for %s: %v", pageID, delErr)
			pubErr.OrphanedPageID = pageID
		}
		return nil, pubErr
	}

	// Step 4: record references. Both external writes have succeeded; no
	// compensation here - see method comment.
	if err := s.generations.UpdatePublication(ctx, generationID, pageID, pageURL, backupRef, backupURL); err != nil {
		return nil, &domain.PublishError{
			GenerationID:          generationID,
			Step:                  domain.StepRecord,
			Err:                   err,
			ExternalArtifactsKept: true,
		}
	}

	s.supersedePrevious(ctx, gen)

	logger.Info("published %s v%d for unit %s: %s", gen.Stage, gen.Version, unit.Name, pageURL)
	return &driving.PublishResult{DocumentURL: pageURL, BackupURL: backupURL}, nil
}

// uploadBackup writes the raw markdown to {root}/{collection}/{unit}/
// as {stage}_v{version}.md, creating folders idempotently.
func (s *PublicationService) uploadBackup(ctx context.Context, collection *domain.Collection, unit *domain.StudyUnit, gen *domain.Generation) (string, string, error) {
	segments := []string{collection.Name, unit.Name}
	if s.rootFolder != "" {
		segments = append([]string{s.rootFolder}, segments...)
	}

	var folderRef string
	err := s.withRetry(ctx, func() error {
		var err error
		folderRef, err = s.backup.EnsureFolderPath(ctx, segments)
		return err
	})
	if err != nil {
		return "", "", err
	}

	fileName := fmt.Sprintf("%s_v%d.md", gen.Stage, gen.Version)
	var fileRef, fileURL string
	err = s.withRetry(ctx, func() error {
		var err error
		fileRef, fileURL, err = s.backup.UploadFile(ctx, folderRef, fileName, []byte(gen.ResponseText))
		return err
	})
	if err != nil {
		return "", "", err
	}
	return fileRef, fileURL, nil
}

// supersedePrevious marks the previously published generation's page for
// the same (unit, stage) as no longer current. Best-effort: a failure is
// logged, never surfaced - the publish itself has already succeeded.
func (s *PublicationService) supersedePrevious(ctx context.Context, gen *domain.Generation) {
	history, err := s.generations.History(ctx, gen.StudyUnitID, &gen.Stage)
	if err != nil {
		logger.Warn("listing history to supersede old pages: %v", err)
		return
	}
	for i := range history {
		prev := &history[i]
		if prev.ID == gen.ID || !prev.Published() {
			continue
		}
		if err := s.publisher.SetPageStatus(ctx, prev.PageID, "Superseded"); err != nil {
			logger.Warn("marking page %s superseded: %v", prev.PageID, err)
		}
	}
}

// withRetry runs fn, retrying only rate-limit failures with doubling
// backoff up to maxRetryAttempts. Auth and validation failures return
// immediately - they are permanent until configuration changes.
func (s *PublicationService) withRetry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !domain.IsRateLimited(err) {
			return err
		}
		if attempt == maxRetryAttempts {
			break
		}
		logger.Debug("rate limited (attempt %d/%d), backing off %s", attempt, maxRetryAttempts, backoff)
		if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
			return sleepErr
		}
		backoff *= 2
	}
	return err
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsManualCleanupRequired reports whether err is a publish failure that
// left an external artifact needing manual removal or reconciliation.
func IsManualCleanupRequired(err error) bool {
	var pubErr *domain.PublishError
	if !errors.As(err, &pubErr) {
		return false
	}
	return pubErr.OrphanedPageID != "" || pubErr.ExternalArtifactsKept
}
