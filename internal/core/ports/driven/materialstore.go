package driven

import (
	"context"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// MaterialStore persists uploaded material items.
//
// ActiveKinds is the content index used by stage-unlock checks. It always
// reflects current storage state at call time; there is no caching layer.
type MaterialStore interface {
	// Save stores or updates a material item.
	Save(ctx context.Context, item domain.MaterialItem) error

	// Get retrieves a material item by ID.
	Get(ctx context.Context, id string) (*domain.MaterialItem, error)

	// ListForUnit returns items for a study unit in upload order.
	// When activeOnly is true, soft-deleted items are filtered out.
	ListForUnit(ctx context.Context, studyUnitID string, activeOnly bool) ([]domain.MaterialItem, error)

	// ActiveKinds returns the set of kinds with at least one active item
	// for the study unit.
	ActiveKinds(ctx context.Context, studyUnitID string) (map[domain.MaterialKind]bool, error)

	// Deactivate soft-deletes an item. The row is kept so historical
	// generations retain valid references. Returns ErrNotFound for
	// unknown ids.
	Deactivate(ctx context.Context, id string) error
}
