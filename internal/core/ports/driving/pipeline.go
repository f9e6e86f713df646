package driving

import (
	"context"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// Eligibility is the result of a stage-unlock check.
type Eligibility struct {
	// Eligible is true when every requirement is satisfied.
	Eligible bool

	// Missing lists unmet requirements as human-readable labels, in a
	// fixed declared order: material kinds in declaration order, then
	// the prior-stage entry last. Deterministic for testing.
	Missing []string
}

// PipelineService orchestrates the note-generation pipeline: stage-unlock
// checks, generation minting, response intake and failure marking.
//
// Generations follow PENDING -> COMPLETED | FAILED; both end states are
// terminal. A failed attempt is never retried in place - a fresh version
// is minted instead, preserving the audit trail.
type PipelineService interface {
	// CanGenerate checks whether the stage may run for the study unit.
	CanGenerate(ctx context.Context, studyUnitID string, stage domain.Stage) (Eligibility, error)

	// StartGeneration re-validates eligibility, assembles the prompt and
	// persists a new PENDING generation with the next dense version.
	// Ineligibility is reported as a domain.RequirementsNotMetError.
	// A PENDING generation already in flight for the same pair does not
	// block this; a new version is always minted.
	StartGeneration(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error)

	// RecordResponse marks a PENDING generation COMPLETED with the pasted
	// response text. Publication is a separate explicit step so a bad
	// paste can be caught before any external write happens.
	RecordResponse(ctx context.Context, generationID, responseText string) (*domain.Generation, error)

	// MarkFailed abandons a PENDING generation. No response is stored;
	// the record remains for audit.
	MarkFailed(ctx context.Context, generationID string) (*domain.Generation, error)

	// History returns generations for a unit ordered by version
	// ascending, optionally filtered to one stage (nil means all).
	History(ctx context.Context, studyUnitID string, stage *domain.Stage) ([]domain.Generation, error)

	// LatestCompleted returns the highest-version COMPLETED generation
	// for the pair, or domain.ErrNotFound.
	LatestCompleted(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error)
}
