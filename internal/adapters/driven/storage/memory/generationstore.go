package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// Ensure GenerationStore implements the interface.
var _ driven.GenerationStore = (*GenerationStore)(nil)

// GenerationStore is an in-memory implementation of driven.GenerationStore.
type GenerationStore struct {
	mu          sync.RWMutex
	generations map[string]domain.Generation
}

// NewGenerationStore creates a new in-memory generation store.
func NewGenerationStore() *GenerationStore {
	return &GenerationStore{generations: make(map[string]domain.Generation)}
}

// Insert stores a new generation.
func (s *GenerationStore) Insert(_ context.Context, gen domain.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[gen.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.generations[gen.ID] = gen
	return nil
}

// Get retrieves a generation by ID.
func (s *GenerationStore) Get(_ context.Context, id string) (*domain.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen, ok := s.generations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &gen, nil
}

// NextVersion returns 1 + the highest existing version for the pair.
func (s *GenerationStore) NextVersion(_ context.Context, studyUnitID string, stage domain.Stage) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxVersion := 0
	for _, gen := range s.generations {
		if gen.StudyUnitID == studyUnitID && gen.Stage == stage && gen.Version > maxVersion {
			maxVersion = gen.Version
		}
	}
	return maxVersion + 1, nil
}

// UpdateStatus sets the status and optionally the response text.
func (s *GenerationStore) UpdateStatus(_ context.Context, id string, status domain.GenerationStatus, responseText *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[id]
	if !ok {
		return domain.ErrNotFound
	}
	gen.Status = status
	if responseText != nil {
		gen.ResponseText = *responseText
	}
	s.generations[id] = gen
	return nil
}

// UpdatePublication sets the page and backup references.
func (s *GenerationStore) UpdatePublication(_ context.Context, id, pageID, pageURL, backupRef, backupURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[id]
	if !ok {
		return domain.ErrNotFound
	}
	gen.PageID = pageID
	gen.PageURL = pageURL
	gen.BackupRef = backupRef
	gen.BackupURL = backupURL
	s.generations[id] = gen
	return nil
}

// LatestCompleted returns the highest-version COMPLETED generation.
func (s *GenerationStore) LatestCompleted(_ context.Context, studyUnitID string, stage domain.Stage) (*domain.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Generation
	for _, gen := range s.generations {
		if gen.StudyUnitID != studyUnitID || gen.Stage != stage || gen.Status != domain.StatusCompleted {
			continue
		}
		if latest == nil || gen.Version > latest.Version {
			g := gen
			latest = &g
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

// History returns generations ordered by version ascending. With a stage
// filter the order is per-stage versions; without, stage order breaks
// version ties so output stays deterministic.
func (s *GenerationStore) History(_ context.Context, studyUnitID string, stage *domain.Stage) ([]domain.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Generation
	for _, gen := range s.generations {
		if gen.StudyUnitID != studyUnitID {
			continue
		}
		if stage != nil && gen.Stage != *stage {
			continue
		}
		result = append(result, gen)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Stage != result[j].Stage {
			return result[i].Stage.Before(result[j].Stage)
		}
		return result[i].Version < result[j].Version
	})
	return result, nil
}
