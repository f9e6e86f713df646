package sqlite

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "studyflow-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	})

	return store
}

// seedUnit creates a collection and a study unit, returning both.
func seedUnit(t *testing.T, store *Store) (domain.Collection, domain.StudyUnit) {
	t.Helper()
	ctx := context.Background()

	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, store.CollectionStore().Save(ctx, collection))
	unit := domain.NewStudyUnit(collection.ID, "Easements")
	require.NoError(t, store.StudyUnitStore().Save(ctx, unit))

	return collection, unit
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	store := setupTestStore(t)

	// A second migrate run applies nothing and fails nothing.
	require.NoError(t, store.migrate(migrations.FS))
}

func TestStore_CollectionRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	collection := domain.NewCollection("Land Law", "land-law", "db-1")
	require.NoError(t, store.CollectionStore().Save(ctx, collection))

	saved, err := store.CollectionStore().Get(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, "Land Law", saved.Name)
	assert.Equal(t, "land-law", saved.ProjectName)
	assert.Equal(t, "db-1", saved.DatabaseID)

	// Upsert updates in place.
	collection.DatabaseID = "db-2"
	require.NoError(t, store.CollectionStore().Save(ctx, collection))
	saved, err = store.CollectionStore().Get(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, "db-2", saved.DatabaseID)

	list, err := store.CollectionStore().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_CollectionGet_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CollectionStore().Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_StudyUnitRename(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)

	require.NoError(t, store.StudyUnitStore().Rename(ctx, unit.ID, "Covenants"))

	saved, err := store.StudyUnitStore().Get(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Covenants", saved.Name)

	err = store.StudyUnitStore().Rename(ctx, "nonexistent", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CollectionDelete_Cascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	collection, unit := seedUnit(t, store)

	item := domain.NewMaterialItem(unit.ID, domain.KindPrimaryLecture, "lecture.pdf", 10)
	require.NoError(t, store.MaterialStore().Save(ctx, item))
	gen := domain.NewGeneration(unit.ID, domain.StageOne, 1, "prompt", "")
	require.NoError(t, store.GenerationStore().Insert(ctx, gen))

	require.NoError(t, store.CollectionStore().Delete(ctx, collection.ID))

	_, err := store.StudyUnitStore().Get(ctx, unit.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.MaterialStore().Get(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GenerationStore().Get(ctx, gen.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MaterialTombstone(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)

	item := domain.NewMaterialItem(unit.ID, domain.KindTranscript, "t.txt", 5)
	require.NoError(t, store.MaterialStore().Save(ctx, item))

	require.NoError(t, store.MaterialStore().Deactivate(ctx, item.ID))

	saved, err := store.MaterialStore().Get(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, saved.Active)

	active, err := store.MaterialStore().ListForUnit(ctx, unit.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := store.MaterialStore().ListForUnit(ctx, unit.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	kinds, err := store.MaterialStore().ActiveKinds(ctx, unit.ID)
	require.NoError(t, err)
	assert.False(t, kinds[domain.KindTranscript])
}

func TestStore_MaterialDeactivate_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.MaterialStore().Deactivate(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GenerationVersioning(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)
	generations := store.GenerationStore()

	v, err := generations.NextVersion(ctx, unit.ID, domain.StageOne)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, generations.Insert(ctx, domain.NewGeneration(unit.ID, domain.StageOne, 1, "p", "")))
	require.NoError(t, generations.Insert(ctx, domain.NewGeneration(unit.ID, domain.StageOne, 2, "p", "")))

	v, err = generations.NextVersion(ctx, unit.ID, domain.StageOne)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	// Stages version independently.
	v, err = generations.NextVersion(ctx, unit.ID, domain.StageTwo)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestStore_GenerationDuplicateVersionRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)
	generations := store.GenerationStore()

	require.NoError(t, generations.Insert(ctx, domain.NewGeneration(unit.ID, domain.StageOne, 1, "p", "")))

	err := generations.Insert(ctx, domain.NewGeneration(unit.ID, domain.StageOne, 1, "p", ""))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_GenerationStatusAndPublication(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)
	generations := store.GenerationStore()

	gen := domain.NewGeneration(unit.ID, domain.StageTwo, 1, "prompt", "")
	require.NoError(t, generations.Insert(ctx, gen))

	response := "# Notes"
	require.NoError(t, generations.UpdateStatus(ctx, gen.ID, domain.StatusCompleted, &response))
	require.NoError(t, generations.UpdatePublication(ctx, gen.ID, "page-1", "https://notion.so/p", "file-1", "https://drive.google.com/f"))

	saved, err := generations.Get(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, saved.Status)
	assert.Equal(t, "# Notes", saved.ResponseText)
	assert.Equal(t, "page-1", saved.PageID)
	assert.True(t, saved.Published())

	err = generations.UpdateStatus(ctx, "nonexistent", domain.StatusFailed, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = generations.UpdatePublication(ctx, "nonexistent", "p", "u", "r", "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GenerationLatestCompletedAndHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, unit := seedUnit(t, store)
	generations := store.GenerationStore()

	_, err := generations.LatestCompleted(ctx, unit.ID, domain.StageTwo)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	v1 := domain.NewGeneration(unit.ID, domain.StageTwo, 1, "p", "")
	v2 := domain.NewGeneration(unit.ID, domain.StageTwo, 2, "p", "")
	v3 := domain.NewGeneration(unit.ID, domain.StageTwo, 3, "p", "")
	require.NoError(t, generations.Insert(ctx, v1))
	require.NoError(t, generations.Insert(ctx, v2))
	require.NoError(t, generations.Insert(ctx, v3))

	r1, r2 := "first", "second"
	require.NoError(t, generations.UpdateStatus(ctx, v1.ID, domain.StatusCompleted, &r1))
	require.NoError(t, generations.UpdateStatus(ctx, v2.ID, domain.StatusCompleted, &r2))
	// v3 stays PENDING and must not win.

	latest, err := generations.LatestCompleted(ctx, unit.ID, domain.StageTwo)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
	assert.Equal(t, "second", latest.ResponseText)

	stage := domain.StageTwo
	history, err := generations.History(ctx, unit.ID, &stage)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 3, history[2].Version)
}

func TestStore_ReopenPreservesData(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "studyflow-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)
	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	collection := domain.NewCollection("Land Law", "", "")
	require.NoError(t, store.CollectionStore().Save(ctx, collection))
	require.NoError(t, store.Close())

	reopened, err := NewStore(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	saved, err := reopened.CollectionStore().Get(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, "Land Law", saved.Name)
}
