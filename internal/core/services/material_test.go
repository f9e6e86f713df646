package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

type materialFixture struct {
	service *MaterialService
	backup  *stubBackup
	unitID  string
}

func newMaterialFixture(t *testing.T, withBackup bool) *materialFixture {
	t.Helper()
	ctx := context.Background()

	collections := memory.NewCollectionStore()
	units := memory.NewStudyUnitStore()
	material := memory.NewMaterialStore()

	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, collections.Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Easements")
	require.NoError(t, units.Save(ctx, unit))

	var backup *stubBackup
	var backupStore driven.BackupStore
	if withBackup {
		backup = newStubBackup()
		backupStore = backup
	}
	service := NewMaterialService(collections, units, material, backupStore, "StudyFlow")

	return &materialFixture{service: service, backup: backup, unitID: unit.ID}
}

func TestMaterialService_AddMaterial_WithBackup(t *testing.T) {
	f := newMaterialFixture(t, true)
	ctx := context.Background()

	item, err := f.service.AddMaterial(ctx, f.unitID, domain.KindPrimaryLecture, "lecture.pdf", []byte("pdf bytes"))
	require.NoError(t, err)

	assert.Equal(t, "file-1", item.StorageRef)
	assert.Equal(t, "https://drive.google.com/file-1", item.StorageURL)
	assert.Equal(t, int64(9), item.SizeBytes)
	assert.True(t, item.Active)

	assert.Equal(t, []string{"StudyFlow", "Land Law", "Easements"}, f.backup.segments)
	assert.Equal(t, []byte("pdf bytes"), f.backup.uploaded["lecture.pdf"])
}

func TestMaterialService_AddMaterial_NoBackupStore(t *testing.T) {
	f := newMaterialFixture(t, false)

	item, err := f.service.AddMaterial(context.Background(), f.unitID, domain.KindTranscript, "transcript.txt", []byte("text"))
	require.NoError(t, err)

	// Recorded locally, no storage references.
	assert.Empty(t, item.StorageRef)
	assert.Empty(t, item.StorageURL)
}

func TestMaterialService_AddMaterial_InvalidKind(t *testing.T) {
	f := newMaterialFixture(t, false)

	_, err := f.service.AddMaterial(context.Background(), f.unitID, domain.MaterialKind("NOTES"), "n.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMaterialService_AddMaterial_EmptyFileName(t *testing.T) {
	f := newMaterialFixture(t, false)

	_, err := f.service.AddMaterial(context.Background(), f.unitID, domain.KindPrimaryLecture, " ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMaterialService_AddMaterial_UnknownUnit(t *testing.T) {
	f := newMaterialFixture(t, false)

	_, err := f.service.AddMaterial(context.Background(), "nonexistent", domain.KindPrimaryLecture, "l.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// failingSaveMaterialStore rejects every Save.
type failingSaveMaterialStore struct {
	*memory.MaterialStore
}

func (s *failingSaveMaterialStore) Save(context.Context, domain.MaterialItem) error {
	return errors.New("disk full")
}

func TestMaterialService_AddMaterial_SaveFailureTrashesUpload(t *testing.T) {
	ctx := context.Background()

	collections := memory.NewCollectionStore()
	units := memory.NewStudyUnitStore()
	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, collections.Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Easements")
	require.NoError(t, units.Save(ctx, unit))

	backup := newStubBackup()
	material := &failingSaveMaterialStore{memory.NewMaterialStore()}
	service := NewMaterialService(collections, units, material, backup, "StudyFlow")

	_, err := service.AddMaterial(ctx, unit.ID, domain.KindPrimaryLecture, "lecture.pdf", []byte("pdf bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving material item")

	// The uploaded copy is compensated away so no orphan outlives the
	// failed save.
	assert.Equal(t, []string{"file-1"}, backup.trashed)
}

func TestMaterialService_AddMaterial_TrashFailureDoesNotMaskSaveError(t *testing.T) {
	ctx := context.Background()

	collections := memory.NewCollectionStore()
	units := memory.NewStudyUnitStore()
	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, collections.Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Easements")
	require.NoError(t, units.Save(ctx, unit))

	backup := newStubBackup()
	backup.trashErr = errors.New("drive unavailable")
	material := &failingSaveMaterialStore{memory.NewMaterialStore()}
	service := NewMaterialService(collections, units, material, backup, "StudyFlow")

	_, err := service.AddMaterial(ctx, unit.ID, domain.KindPrimaryLecture, "lecture.pdf", []byte("pdf bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving material item")
	assert.Empty(t, backup.trashed)
}

func TestMaterialService_RemoveMaterial(t *testing.T) {
	f := newMaterialFixture(t, false)
	ctx := context.Background()

	item, err := f.service.AddMaterial(ctx, f.unitID, domain.KindPrimaryLecture, "lecture.pdf", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.RemoveMaterial(ctx, item.ID))

	active, err := f.service.ListMaterial(ctx, f.unitID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.service.ListMaterial(ctx, f.unitID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}
