package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// PipelineService orchestrates the note-generation pipeline.
type PipelineService struct {
	collections driven.CollectionStore
	units       driven.StudyUnitStore
	material    driven.MaterialStore
	generations driven.GenerationStore
	renderer    driven.PromptRenderer
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	collections driven.CollectionStore,
	units driven.StudyUnitStore,
	material driven.MaterialStore,
	generations driven.GenerationStore,
	renderer driven.PromptRenderer,
) *PipelineService {
	return &PipelineService{
		collections: collections,
		units:       units,
		material:    material,
		generations: generations,
		renderer:    renderer,
	}
}

// CanGenerate checks whether the stage may run for the study unit.
// The missing list is deterministic: material kinds in declaration order,
// then the prior-stage entry last.
func (s *PipelineService) CanGenerate(ctx context.Context, studyUnitID string, stage domain.Stage) (driving.Eligibility, error) {
	if s.material == nil || s.generations == nil {
		return driving.Eligibility{}, domain.ErrNotImplemented
	}
	if !stage.Valid() {
		return driving.Eligibility{}, fmt.Errorf("unknown stage %q: %w", stage, domain.ErrInvalidInput)
	}

	active, err := s.material.ActiveKinds(ctx, studyUnitID)
	if err != nil {
		return driving.Eligibility{}, fmt.Errorf("looking up active material: %w", err)
	}

	var missing []string
	for _, kind := range RequiredKinds(stage) {
		if !active[kind] {
			missing = append(missing, kind.Label())
		}
	}

	if prior := RequiredPriorStage(stage); prior != "" {
		_, err := s.generations.LatestCompleted(ctx, studyUnitID, prior)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			missing = append(missing, priorStageLabel(prior))
		case err != nil:
			return driving.Eligibility{}, fmt.Errorf("looking up %s completion: %w", prior, err)
		}
	}

	return driving.Eligibility{Eligible: len(missing) == 0, Missing: missing}, nil
}

// StartGeneration re-validates eligibility and mints a new PENDING
// generation with the next dense version for the (unit, stage) pair.
//
// An existing PENDING generation never blocks this: each eligible call
// creates a new version, favouring a complete audit trail over reuse.
func (s *PipelineService) StartGeneration(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error) {
	if s.units == nil || s.collections == nil || s.renderer == nil {
		return nil, domain.ErrNotImplemented
	}

	// Defence in depth: callers usually check first, but never trust them.
	eligibility, err := s.CanGenerate(ctx, studyUnitID, stage)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, &domain.RequirementsNotMetError{Stage: stage, Missing: eligibility.Missing}
	}

	unit, err := s.units.Get(ctx, studyUnitID)
	if err != nil {
		return nil, fmt.Errorf("resolving study unit %s: %w", studyUnitID, err)
	}
	collection, err := s.collections.Get(ctx, unit.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("resolving collection %s: %w", unit.CollectionID, err)
	}

	fileNames, err := s.materialNames(ctx, studyUnitID, stage)
	if err != nil {
		return nil, err
	}

	var priorResponse, previousID string
	if prior := RequiredPriorStage(stage); prior != "" {
		previous, err := s.generations.LatestCompleted(ctx, studyUnitID, prior)
		if errors.Is(err, domain.ErrNotFound) {
			// The eligibility check just confirmed this exists.
			return nil, &domain.ConsistencyError{
				Detail: fmt.Sprintf("completed %s generation for unit %s vanished after eligibility check", prior, studyUnitID),
			}
		}
		if err != nil {
			return nil, fmt.Errorf("resolving %s generation: %w", prior, err)
		}
		if previous.ResponseText == "" {
			return nil, &domain.ConsistencyError{
				Detail: fmt.Sprintf("generation %s is COMPLETED but has no response text", previous.ID),
			}
		}
		priorResponse = previous.ResponseText
		previousID = previous.ID
	}

	prompt, err := s.renderer.Render(stage, driven.PromptInput{
		UnitName:       unit.Name,
		CollectionName: collection.Name,
		FileNames:      fileNames,
		PriorResponse:  priorResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering %s prompt: %w", stage, err)
	}

	version, err := s.generations.NextVersion(ctx, studyUnitID, stage)
	if err != nil {
		return nil, fmt.Errorf("computing next version: %w", err)
	}

	gen := domain.NewGeneration(studyUnitID, stage, version, prompt, previousID)
	if err := s.generations.Insert(ctx, gen); err != nil {
		return nil, fmt.Errorf("persisting generation: %w", err)
	}

	logger.Debug("started %s v%d for unit %s (generation %s)", stage, version, studyUnitID, gen.ID)
	return &gen, nil
}

// RecordResponse marks a PENDING generation COMPLETED with the pasted
// response text. Publication is a separate explicit step.
func (s *PipelineService) RecordResponse(ctx context.Context, generationID, responseText string) (*domain.Generation, error) {
	if s.generations == nil {
		return nil, domain.ErrNotImplemented
	}
	if responseText == "" {
		return nil, fmt.Errorf("empty response text: %w", domain.ErrInvalidInput)
	}
	return s.transition(ctx, generationID, domain.StatusCompleted, &responseText)
}

// MarkFailed abandons a PENDING generation. The record remains for audit;
// a fresh version must be started instead of retrying in place.
func (s *PipelineService) MarkFailed(ctx context.Context, generationID string) (*domain.Generation, error) {
	if s.generations == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.transition(ctx, generationID, domain.StatusFailed, nil)
}

// History returns generations ordered by version ascending.
func (s *PipelineService) History(ctx context.Context, studyUnitID string, stage *domain.Stage) ([]domain.Generation, error) {
	if s.generations == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.generations.History(ctx, studyUnitID, stage)
}

// LatestCompleted returns the highest-version COMPLETED generation.
func (s *PipelineService) LatestCompleted(ctx context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error) {
	if s.generations == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.generations.LatestCompleted(ctx, studyUnitID, stage)
}

// transition moves a PENDING generation into a terminal status.
func (s *PipelineService) transition(ctx context.Context, generationID string, status domain.GenerationStatus, responseText *string) (*domain.Generation, error) {
	gen, err := s.generations.Get(ctx, generationID)
	if err != nil {
		return nil, fmt.Errorf("loading generation %s: %w", generationID, err)
	}
	if gen.Status != domain.StatusPending {
		return nil, &domain.InvalidStateError{GenerationID: generationID, Status: gen.Status}
	}

	if err := s.generations.UpdateStatus(ctx, generationID, status, responseText); err != nil {
		return nil, fmt.Errorf("updating generation %s: %w", generationID, err)
	}

	gen.Status = status
	if responseText != nil {
		gen.ResponseText = *responseText
	}
	return gen, nil
}

// materialNames returns active file names of the stage's required kinds in
// upload order. Policy point: when several items of one kind exist, all of
// them are included.
func (s *PipelineService) materialNames(ctx context.Context, studyUnitID string, stage domain.Stage) ([]string, error) {
	items, err := s.material.ListForUnit(ctx, studyUnitID, true)
	if err != nil {
		return nil, fmt.Errorf("listing material: %w", err)
	}

	relevant := make(map[domain.MaterialKind]bool, len(RequiredKinds(stage)))
	for _, kind := range RequiredKinds(stage) {
		relevant[kind] = true
	}

	var names []string
	for i := range items {
		if relevant[items[i].Kind] {
			names = append(names, items[i].FileName)
		}
	}
	return names, nil
}
