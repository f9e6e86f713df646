package driving

import (
	"context"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// LibraryService manages collections and their study units.
type LibraryService interface {
	// AddCollection creates a collection.
	AddCollection(ctx context.Context, name, projectName, databaseID string) (*domain.Collection, error)

	// GetCollection retrieves a collection by ID.
	GetCollection(ctx context.Context, id string) (*domain.Collection, error)

	// ListCollections returns all collections.
	ListCollections(ctx context.Context) ([]domain.Collection, error)

	// AddUnit creates a study unit inside a collection.
	AddUnit(ctx context.Context, collectionID, name string) (*domain.StudyUnit, error)

	// GetUnit retrieves a study unit by ID.
	GetUnit(ctx context.Context, id string) (*domain.StudyUnit, error)

	// ListUnits returns the units of a collection in creation order.
	ListUnits(ctx context.Context, collectionID string) ([]domain.StudyUnit, error)

	// RenameUnit changes a unit's name, the only mutation units allow.
	RenameUnit(ctx context.Context, id, name string) error
}

// MaterialService manages uploaded course material.
type MaterialService interface {
	// AddMaterial records an uploaded file for a unit. When content is
	// non-nil and a backup store is configured, the bytes are uploaded
	// under {root}/{collection}/{unit}/ first and the item carries the
	// resulting references.
	AddMaterial(ctx context.Context, studyUnitID string, kind domain.MaterialKind, fileName string, content []byte) (*domain.MaterialItem, error)

	// ListMaterial returns a unit's items in upload order. Soft-deleted
	// items are included only when activeOnly is false.
	ListMaterial(ctx context.Context, studyUnitID string, activeOnly bool) ([]domain.MaterialItem, error)

	// RemoveMaterial soft-deletes an item. The row is kept so historical
	// generations stay referentially valid.
	RemoveMaterial(ctx context.Context, id string) error
}
