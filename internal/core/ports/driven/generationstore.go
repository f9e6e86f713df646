package driven

import (
	"context"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// GenerationStore persists the append-mostly log of generation attempts.
//
// Any write against an unknown generation id returns domain.ErrNotFound.
// State-machine rules (which transitions are legal) are enforced by the
// orchestrator, not the store.
type GenerationStore interface {
	// Insert stores a new generation.
	Insert(ctx context.Context, gen domain.Generation) error

	// Get retrieves a generation by ID.
	Get(ctx context.Context, id string) (*domain.Generation, error)

	// NextVersion returns 1 + the highest existing version for the
	// (unit, stage) pair, or 1 if none exists.
	NextVersion(ctx context.Context, studyUnitID string, stage domain.Stage) (int, error)

	// UpdateStatus sets the status and, when responseText is non-nil,
	// the response text.
	UpdateStatus(ctx context.Context, id string, status domain.GenerationStatus, responseText *string) error

	// UpdatePublication sets the page and backup references. Called
	// exactly once per generation, at publication.
	UpdatePublication(ctx context.Context, id, pageID, pageURL, backupRef, backupURL string) error

	// LatestCompleted returns the highest-version COMPLETED generation
	// for the pair, or ErrNotFound if none exists.
	LatestCompleted(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error)

	// History returns generations for a unit ordered by version
	// ascending, optionally filtered to one stage (nil means all).
	History(ctx context.Context, studyUnitID string, stage *domain.Stage) ([]domain.Generation, error)
}
