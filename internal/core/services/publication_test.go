package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// stubPublisher records calls and fails on demand.
type stubPublisher struct {
	convertErr   error
	createErr    error
	createErrs   []error // consumed one per CreatePage call when set
	deleteErr    error
	statusErr    error
	createCalls  int
	deletedPages []string
	statusCalls  map[string]string
}

func newStubPublisher() *stubPublisher {
	return &stubPublisher{statusCalls: make(map[string]string)}
}

func (p *stubPublisher) ConvertMarkdown(text string) ([]driven.Block, error) {
	if p.convertErr != nil {
		return nil, p.convertErr
	}
	return []driven.Block{text}, nil
}

func (p *stubPublisher) CreatePage(_ context.Context, _, _ string, _ driven.PageProperties, _ []driven.Block) (string, string, error) {
	p.createCalls++
	if len(p.createErrs) > 0 {
		err := p.createErrs[0]
		p.createErrs = p.createErrs[1:]
		if err != nil {
			return "", "", err
		}
	} else if p.createErr != nil {
		return "", "", p.createErr
	}
	return "page-1", "https://notion.so/page-1", nil
}

func (p *stubPublisher) DeletePage(_ context.Context, pageID string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletedPages = append(p.deletedPages, pageID)
	return nil
}

func (p *stubPublisher) SetPageStatus(_ context.Context, pageID, status string) error {
	if p.statusErr != nil {
		return p.statusErr
	}
	p.statusCalls[pageID] = status
	return nil
}

// stubBackup records folder and upload calls and fails on demand.
type stubBackup struct {
	folderErr error
	uploadErr error
	trashErr  error
	segments  []string
	uploaded  map[string][]byte
	trashed   []string
}

func newStubBackup() *stubBackup {
	return &stubBackup{uploaded: make(map[string][]byte)}
}

func (b *stubBackup) EnsureFolderPath(_ context.Context, segments []string) (string, error) {
	if b.folderErr != nil {
		return "", b.folderErr
	}
	b.segments = segments
	return "folder-1", nil
}

func (b *stubBackup) UploadFile(_ context.Context, _, fileName string, content []byte) (string, string, error) {
	if b.uploadErr != nil {
		return "", "", b.uploadErr
	}
	b.uploaded[fileName] = content
	return "file-1", "https://drive.google.com/file-1", nil
}

func (b *stubBackup) TrashFile(_ context.Context, fileRef string) error {
	if b.trashErr != nil {
		return b.trashErr
	}
	b.trashed = append(b.trashed, fileRef)
	return nil
}

// failingRecordStore wraps the memory store and fails UpdatePublication.
type failingRecordStore struct {
	*memory.GenerationStore
}

func (s *failingRecordStore) UpdatePublication(context.Context, string, string, string, string, string) error {
	return errors.New("disk full")
}

type publicationFixture struct {
	service     *PublicationService
	publisher   *stubPublisher
	backup      *stubBackup
	generations driven.GenerationStore
	genID       string
}

func newPublicationFixture(t *testing.T, generations driven.GenerationStore) *publicationFixture {
	t.Helper()
	ctx := context.Background()

	collections := memory.NewCollectionStore()
	units := memory.NewStudyUnitStore()
	if generations == nil {
		generations = memory.NewGenerationStore()
	}

	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, collections.Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Easements")
	require.NoError(t, units.Save(ctx, unit))

	gen := domain.NewGeneration(unit.ID, domain.StageTwo, 1, "prompt", "")
	require.NoError(t, generations.Insert(ctx, gen))
	response := "# Easements\n\nNotes."
	require.NoError(t, generations.UpdateStatus(ctx, gen.ID, domain.StatusCompleted, &response))

	publisher := newStubPublisher()
	backup := newStubBackup()
	service := NewPublicationService(collections, units, generations, publisher, backup, "StudyFlow")
	service.sleep = func(context.Context, time.Duration) error { return nil }

	return &publicationFixture{
		service:     service,
		publisher:   publisher,
		backup:      backup,
		generations: generations,
		genID:       gen.ID,
	}
}

func TestPublicationService_Publish_Success(t *testing.T) {
	f := newPublicationFixture(t, nil)
	ctx := context.Background()

	result, err := f.service.Publish(ctx, f.genID, "")
	require.NoError(t, err)

	assert.Equal(t, "https://notion.so/page-1", result.DocumentURL)
	assert.Equal(t, "https://drive.google.com/file-1", result.BackupURL)

	// Folder hierarchy is root/collection/unit.
	assert.Equal(t, []string{"StudyFlow", "Land Law", "Easements"}, f.backup.segments)
	assert.Contains(t, f.backup.uploaded, "STAGE_2_v1.md")
	assert.Equal(t, []byte("# Easements\n\nNotes."), f.backup.uploaded["STAGE_2_v1.md"])

	// Both references are recorded.
	saved, err := f.generations.Get(ctx, f.genID)
	require.NoError(t, err)
	assert.Equal(t, "page-1", saved.PageID)
	assert.Equal(t, "file-1", saved.BackupRef)
	assert.True(t, saved.Published())
}

func TestPublicationService_Publish_AlreadyPublished(t *testing.T) {
	f := newPublicationFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Publish(ctx, f.genID, "")
	require.NoError(t, err)

	_, err = f.service.Publish(ctx, f.genID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyPublished)

	// The second attempt never touched the external services again.
	assert.Equal(t, 1, f.publisher.createCalls)
}

func TestPublicationService_Publish_NotCompleted(t *testing.T) {
	f := newPublicationFixture(t, nil)
	ctx := context.Background()

	pending := domain.NewGeneration("unit-x", domain.StageOne, 1, "p", "")
	require.NoError(t, f.generations.Insert(ctx, pending))

	_, err := f.service.Publish(ctx, pending.ID, "db-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPublicationService_Publish_NoDatabaseAnywhere(t *testing.T) {
	ctx := context.Background()
	collections := memory.NewCollectionStore()
	units := memory.NewStudyUnitStore()
	generations := memory.NewGenerationStore()

	// Collection without a configured database.
	collection := domain.NewCollection("Contract Law", "", "")
	require.NoError(t, collections.Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Offer and Acceptance")
	require.NoError(t, units.Save(ctx, unit))
	gen := domain.NewGeneration(unit.ID, domain.StageOne, 1, "p", "")
	require.NoError(t, generations.Insert(ctx, gen))
	response := "notes"
	require.NoError(t, generations.UpdateStatus(ctx, gen.ID, domain.StatusCompleted, &response))

	service := NewPublicationService(collections, units, generations, newStubPublisher(), newStubBackup(), "")

	_, err := service.Publish(ctx, gen.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPublicationService_Publish_ConvertFailure(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.publisher.convertErr = fmt.Errorf("bad markdown: %w", domain.ErrContentConversion)

	_, err := f.service.Publish(context.Background(), f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepConvert, pubErr.Step)
	assert.ErrorIs(t, err, domain.ErrContentConversion)

	// Nothing external was touched.
	assert.Equal(t, 0, f.publisher.createCalls)
	assert.Empty(t, f.backup.uploaded)
	assert.False(t, IsManualCleanupRequired(err))
}

func TestPublicationService_Publish_CreatePageFailure(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.publisher.createErr = errors.New("boom")

	_, err := f.service.Publish(context.Background(), f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepCreatePage, pubErr.Step)
	assert.Empty(t, f.backup.uploaded)
	assert.False(t, IsManualCleanupRequired(err))
}

func TestPublicationService_Publish_BackupFailure_CompensatesPage(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.backup.uploadErr = errors.New("quota exceeded")
	ctx := context.Background()

	_, err := f.service.Publish(ctx, f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepUploadBackup, pubErr.Step)

	// The page created in step 2 was compensated away.
	assert.Equal(t, []string{"page-1"}, f.publisher.deletedPages)
	assert.Empty(t, pubErr.OrphanedPageID)
	assert.False(t, IsManualCleanupRequired(err))

	// Publication fields remain unset; a later retry is possible.
	saved, getErr := f.generations.Get(ctx, f.genID)
	require.NoError(t, getErr)
	assert.False(t, saved.Published())
}

func TestPublicationService_Publish_CompensationFailure_ReportsOrphan(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.backup.uploadErr = errors.New("quota exceeded")
	f.publisher.deleteErr = errors.New("network down")

	_, err := f.service.Publish(context.Background(), f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepUploadBackup, pubErr.Step)
	assert.Equal(t, "page-1", pubErr.OrphanedPageID)
	assert.True(t, IsManualCleanupRequired(err))
	assert.Contains(t, err.Error(), "page-1")
}

func TestPublicationService_Publish_RecordFailure_KeepsArtifacts(t *testing.T) {
	store := &failingRecordStore{GenerationStore: memory.NewGenerationStore()}
	f := newPublicationFixture(t, store)

	_, err := f.service.Publish(context.Background(), f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepRecord, pubErr.Step)
	assert.True(t, pubErr.ExternalArtifactsKept)
	assert.True(t, IsManualCleanupRequired(err))

	// No compensation: the page was not deleted.
	assert.Empty(t, f.publisher.deletedPages)
	assert.Contains(t, f.backup.uploaded, "STAGE_2_v1.md")
}

func TestPublicationService_Publish_RateLimitRetry(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.publisher.createErrs = []error{
		fmt.Errorf("429: %w", domain.ErrRateLimited),
		fmt.Errorf("429: %w", domain.ErrRateLimited),
		nil,
	}

	var delays []time.Duration
	f.service.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := f.service.Publish(context.Background(), f.genID, "")
	require.NoError(t, err)

	assert.Equal(t, 3, f.publisher.createCalls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestPublicationService_Publish_RateLimitExhausted(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.publisher.createErr = fmt.Errorf("429: %w", domain.ErrRateLimited)

	_, err := f.service.Publish(context.Background(), f.genID, "")

	var pubErr *domain.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, domain.StepCreatePage, pubErr.Step)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, f.publisher.createCalls)
}

func TestPublicationService_Publish_AuthFailureNotRetried(t *testing.T) {
	f := newPublicationFixture(t, nil)
	f.publisher.createErr = fmt.Errorf("401: %w", domain.ErrAuthInvalid)

	_, err := f.service.Publish(context.Background(), f.genID, "")

	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Equal(t, 1, f.publisher.createCalls)
}

func TestPublicationService_Publish_SupersedesPreviousVersion(t *testing.T) {
	f := newPublicationFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Publish(ctx, f.genID, "")
	require.NoError(t, err)

	// A second COMPLETED version of the same (unit, stage).
	first, err := f.generations.Get(ctx, f.genID)
	require.NoError(t, err)
	next := domain.NewGeneration(first.StudyUnitID, first.Stage, 2, "prompt", "")
	require.NoError(t, f.generations.Insert(ctx, next))
	response := "revised notes"
	require.NoError(t, f.generations.UpdateStatus(ctx, next.ID, domain.StatusCompleted, &response))

	_, err = f.service.Publish(ctx, next.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "Superseded", f.publisher.statusCalls[first.PageID])
}

func TestPublicationService_Publish_SupersedeFailureIsSwallowed(t *testing.T) {
	f := newPublicationFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Publish(ctx, f.genID, "")
	require.NoError(t, err)

	next := domain.NewGeneration(mustGet(t, f.generations, f.genID).StudyUnitID, domain.StageTwo, 2, "p", "")
	require.NoError(t, f.generations.Insert(ctx, next))
	response := "revised"
	require.NoError(t, f.generations.UpdateStatus(ctx, next.ID, domain.StatusCompleted, &response))

	f.publisher.statusErr = errors.New("page locked")

	result, err := f.service.Publish(ctx, next.ID, "")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestIsManualCleanupRequired_NonPublishError(t *testing.T) {
	assert.False(t, IsManualCleanupRequired(errors.New("plain")))
	assert.False(t, IsManualCleanupRequired(nil))
}

func mustGet(t *testing.T, store driven.GenerationStore, id string) *domain.Generation {
	t.Helper()
	gen, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return gen
}
