package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/studyflow-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.studyflow/data/studyflow.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".studyflow", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "studyflow.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CollectionStore returns a CollectionStore interface backed by this store.
func (s *Store) CollectionStore() driven.CollectionStore {
	return &collectionStore{store: s}
}

// StudyUnitStore returns a StudyUnitStore interface backed by this store.
func (s *Store) StudyUnitStore() driven.StudyUnitStore {
	return &studyUnitStore{store: s}
}

// MaterialStore returns a MaterialStore interface backed by this store.
func (s *Store) MaterialStore() driven.MaterialStore {
	return &materialStore{store: s}
}

// GenerationStore returns a GenerationStore interface backed by this store.
func (s *Store) GenerationStore() driven.GenerationStore {
	return &generationStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collection Store ====================

// collectionStore implements driven.CollectionStore.
type collectionStore struct {
	store *Store
}

var _ driven.CollectionStore = (*collectionStore)(nil)

// Save stores or updates a collection.
func (s *collectionStore) Save(ctx context.Context, collection domain.Collection) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, project_name, database_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			project_name = excluded.project_name,
			database_id = excluded.database_id,
			updated_at = excluded.updated_at
	`, collection.ID, collection.Name, collection.ProjectName, collection.DatabaseID,
		collection.CreatedAt, collection.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// Get retrieves a collection by ID.
func (s *collectionStore) Get(ctx context.Context, id string) (*domain.Collection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, project_name, database_id, created_at, updated_at
		FROM collections WHERE id = ?
	`, id)

	var collection domain.Collection
	if err := row.Scan(&collection.ID, &collection.Name, &collection.ProjectName,
		&collection.DatabaseID, &collection.CreatedAt, &collection.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	return &collection, nil
}

// List returns all collections in creation order.
func (s *collectionStore) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, project_name, database_id, created_at, updated_at
		FROM collections ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection //nolint:prealloc // size unknown from query
	for rows.Next() {
		var collection domain.Collection
		if err := rows.Scan(&collection.ID, &collection.Name, &collection.ProjectName,
			&collection.DatabaseID, &collection.CreatedAt, &collection.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}

	return collections, nil
}

// Delete removes a collection. Units, material and generations go with it
// via foreign key cascades.
func (s *collectionStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// ==================== Study Unit Store ====================

// studyUnitStore implements driven.StudyUnitStore.
type studyUnitStore struct {
	store *Store
}

var _ driven.StudyUnitStore = (*studyUnitStore)(nil)

// Save stores or updates a study unit.
func (s *studyUnitStore) Save(ctx context.Context, unit domain.StudyUnit) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO study_units (id, collection_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_id = excluded.collection_id,
			name = excluded.name,
			updated_at = excluded.updated_at
	`, unit.ID, unit.CollectionID, unit.Name, unit.CreatedAt, unit.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving study unit: %w", err)
	}
	return nil
}

// Get retrieves a study unit by ID.
func (s *studyUnitStore) Get(ctx context.Context, id string) (*domain.StudyUnit, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, collection_id, name, created_at, updated_at
		FROM study_units WHERE id = ?
	`, id)

	var unit domain.StudyUnit
	if err := row.Scan(&unit.ID, &unit.CollectionID, &unit.Name,
		&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning study unit: %w", err)
	}

	return &unit, nil
}

// ListByCollection returns units for a collection in creation order.
func (s *studyUnitStore) ListByCollection(ctx context.Context, collectionID string) ([]domain.StudyUnit, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, collection_id, name, created_at, updated_at
		FROM study_units WHERE collection_id = ?
		ORDER BY created_at, id
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("querying study units: %w", err)
	}
	defer rows.Close()

	var units []domain.StudyUnit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var unit domain.StudyUnit
		if err := rows.Scan(&unit.ID, &unit.CollectionID, &unit.Name,
			&unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning study unit: %w", err)
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating study units: %w", err)
	}

	return units, nil
}

// Rename updates the unit name.
func (s *studyUnitStore) Rename(ctx context.Context, id, name string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE study_units SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, name, id)
	if err != nil {
		return fmt.Errorf("renaming study unit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rename result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a unit and its owned rows via cascades.
func (s *studyUnitStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM study_units WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting study unit: %w", err)
	}
	return nil
}

// ==================== Material Store ====================

// materialStore implements driven.MaterialStore.
type materialStore struct {
	store *Store
}

var _ driven.MaterialStore = (*materialStore)(nil)

// Save stores or updates a material item.
func (s *materialStore) Save(ctx context.Context, item domain.MaterialItem) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO material_items
			(id, study_unit_id, kind, file_name, storage_ref, storage_url, size_bytes, uploaded_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			study_unit_id = excluded.study_unit_id,
			kind = excluded.kind,
			file_name = excluded.file_name,
			storage_ref = excluded.storage_ref,
			storage_url = excluded.storage_url,
			size_bytes = excluded.size_bytes,
			active = excluded.active
	`, item.ID, item.StudyUnitID, string(item.Kind), item.FileName,
		item.StorageRef, item.StorageURL, item.SizeBytes, item.UploadedAt, item.Active)

	if err != nil {
		return fmt.Errorf("saving material item: %w", err)
	}
	return nil
}

// Get retrieves a material item by ID.
func (s *materialStore) Get(ctx context.Context, id string) (*domain.MaterialItem, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, study_unit_id, kind, file_name, storage_ref, storage_url, size_bytes, uploaded_at, active
		FROM material_items WHERE id = ?
	`, id)

	item, err := scanMaterialItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return item, err
}

// ListForUnit returns items for a study unit in upload order.
func (s *materialStore) ListForUnit(ctx context.Context, studyUnitID string, activeOnly bool) ([]domain.MaterialItem, error) {
	query := `
		SELECT id, study_unit_id, kind, file_name, storage_ref, storage_url, size_bytes, uploaded_at, active
		FROM material_items WHERE study_unit_id = ?
	`
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY uploaded_at, id"

	rows, err := s.store.db.QueryContext(ctx, query, studyUnitID)
	if err != nil {
		return nil, fmt.Errorf("querying material items: %w", err)
	}
	defer rows.Close()

	var items []domain.MaterialItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := scanMaterialItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating material items: %w", err)
	}

	return items, nil
}

// ActiveKinds returns the set of kinds with at least one active item.
func (s *materialStore) ActiveKinds(ctx context.Context, studyUnitID string) (map[domain.MaterialKind]bool, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT kind FROM material_items
		WHERE study_unit_id = ? AND active = 1
	`, studyUnitID)
	if err != nil {
		return nil, fmt.Errorf("querying active kinds: %w", err)
	}
	defer rows.Close()

	kinds := make(map[domain.MaterialKind]bool)
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("scanning kind: %w", err)
		}
		kinds[domain.MaterialKind(kind)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating kinds: %w", err)
	}

	return kinds, nil
}

// Deactivate soft-deletes an item. The row survives as a tombstone.
func (s *materialStore) Deactivate(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "UPDATE material_items SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deactivating material item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deactivate result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanMaterialItem scans one row using the given scan function, so it
// works for both *sql.Row and *sql.Rows.
func scanMaterialItem(scan func(dest ...any) error) (*domain.MaterialItem, error) {
	var item domain.MaterialItem
	var kind string
	if err := scan(&item.ID, &item.StudyUnitID, &kind, &item.FileName,
		&item.StorageRef, &item.StorageURL, &item.SizeBytes, &item.UploadedAt, &item.Active); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning material item: %w", err)
	}
	item.Kind = domain.MaterialKind(kind)
	return &item, nil
}

// ==================== Generation Store ====================

// generationStore implements driven.GenerationStore.
type generationStore struct {
	store *Store
}

var _ driven.GenerationStore = (*generationStore)(nil)

// Insert stores a new generation.
func (s *generationStore) Insert(ctx context.Context, gen domain.Generation) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO generations
			(id, study_unit_id, stage, version, status, prompt, response_text,
			 page_id, page_url, backup_ref, backup_url, previous_generation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, gen.ID, gen.StudyUnitID, string(gen.Stage), gen.Version, string(gen.Status),
		gen.Prompt, gen.ResponseText, gen.PageID, gen.PageURL,
		gen.BackupRef, gen.BackupURL, gen.PreviousGenerationID, gen.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting generation: %w", err)
	}
	return nil
}

// Get retrieves a generation by ID.
func (s *generationStore) Get(ctx context.Context, id string) (*domain.Generation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, study_unit_id, stage, version, status, prompt, response_text,
		       page_id, page_url, backup_ref, backup_url, previous_generation_id, created_at
		FROM generations WHERE id = ?
	`, id)

	gen, err := scanGeneration(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return gen, err
}

// NextVersion returns 1 + the highest existing version for the pair.
func (s *generationStore) NextVersion(ctx context.Context, studyUnitID string, stage domain.Stage) (int, error) {
	var maxVersion int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM generations
		WHERE study_unit_id = ? AND stage = ?
	`, studyUnitID, string(stage)).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("computing next version: %w", err)
	}
	return maxVersion + 1, nil
}

// UpdateStatus sets the status and optionally the response text.
func (s *generationStore) UpdateStatus(ctx context.Context, id string, status domain.GenerationStatus, responseText *string) error {
	var result sql.Result
	var err error
	if responseText != nil {
		result, err = s.store.db.ExecContext(ctx, `
			UPDATE generations SET status = ?, response_text = ? WHERE id = ?
		`, string(status), *responseText, id)
	} else {
		result, err = s.store.db.ExecContext(ctx, `
			UPDATE generations SET status = ? WHERE id = ?
		`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("updating generation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePublication sets the page and backup references.
func (s *generationStore) UpdatePublication(ctx context.Context, id, pageID, pageURL, backupRef, backupURL string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE generations
		SET page_id = ?, page_url = ?, backup_ref = ?, backup_url = ?
		WHERE id = ?
	`, pageID, pageURL, backupRef, backupURL, id)
	if err != nil {
		return fmt.Errorf("updating publication references: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestCompleted returns the highest-version COMPLETED generation.
func (s *generationStore) LatestCompleted(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, study_unit_id, stage, version, status, prompt, response_text,
		       page_id, page_url, backup_ref, backup_url, previous_generation_id, created_at
		FROM generations
		WHERE study_unit_id = ? AND stage = ? AND status = ?
		ORDER BY version DESC LIMIT 1
	`, studyUnitID, string(stage), string(domain.StatusCompleted))

	gen, err := scanGeneration(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return gen, err
}

// History returns generations ordered by stage, then version ascending.
func (s *generationStore) History(ctx context.Context, studyUnitID string, stage *domain.Stage) ([]domain.Generation, error) {
	query := `
		SELECT id, study_unit_id, stage, version, status, prompt, response_text,
		       page_id, page_url, backup_ref, backup_url, previous_generation_id, created_at
		FROM generations WHERE study_unit_id = ?
	`
	args := []any{studyUnitID}
	if stage != nil {
		query += " AND stage = ?"
		args = append(args, string(*stage))
	}
	query += " ORDER BY stage, version"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var generations []domain.Generation //nolint:prealloc // size unknown from query
	for rows.Next() {
		gen, err := scanGeneration(rows.Scan)
		if err != nil {
			return nil, err
		}
		generations = append(generations, *gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generations: %w", err)
	}

	return generations, nil
}

// scanGeneration scans one row using the given scan function.
func scanGeneration(scan func(dest ...any) error) (*domain.Generation, error) {
	var gen domain.Generation
	var stage, status string
	if err := scan(&gen.ID, &gen.StudyUnitID, &stage, &gen.Version, &status,
		&gen.Prompt, &gen.ResponseText, &gen.PageID, &gen.PageURL,
		&gen.BackupRef, &gen.BackupURL, &gen.PreviousGenerationID, &gen.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning generation: %w", err)
	}
	gen.Stage = domain.Stage(stage)
	gen.Status = domain.GenerationStatus(status)
	return &gen, nil
}
