package driven

import (
	"context"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// CollectionStore persists collections.
type CollectionStore interface {
	// Save stores or updates a collection.
	Save(ctx context.Context, collection domain.Collection) error

	// Get retrieves a collection by ID.
	Get(ctx context.Context, id string) (*domain.Collection, error)

	// List returns all collections.
	List(ctx context.Context) ([]domain.Collection, error)

	// Delete removes a collection and, at the persistence boundary, its
	// units, material and generations.
	Delete(ctx context.Context, id string) error
}

// StudyUnitStore persists study units.
type StudyUnitStore interface {
	// Save stores or updates a study unit.
	Save(ctx context.Context, unit domain.StudyUnit) error

	// Get retrieves a study unit by ID.
	Get(ctx context.Context, id string) (*domain.StudyUnit, error)

	// ListByCollection returns units for a collection in creation order.
	ListByCollection(ctx context.Context, collectionID string) ([]domain.StudyUnit, error)

	// Rename updates the unit name. Returns ErrNotFound for unknown ids.
	Rename(ctx context.Context, id, name string) error

	// Delete removes a unit and its owned rows.
	Delete(ctx context.Context, id string) error
}
