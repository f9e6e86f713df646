// Package memory provides in-memory implementations of the driven store
// ports. Used as test fixtures and as a fallback when no data directory
// is available.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// Ensure CollectionStore implements the interface.
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore is an in-memory implementation of driven.CollectionStore.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]domain.Collection
	order       []string
}

// NewCollectionStore creates a new in-memory collection store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{collections: make(map[string]domain.Collection)}
}

// Save stores or updates a collection.
func (s *CollectionStore) Save(_ context.Context, collection domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection.ID]; !ok {
		s.order = append(s.order, collection.ID)
	}
	s.collections[collection.ID] = collection
	return nil
}

// Get retrieves a collection by ID.
func (s *CollectionStore) Get(_ context.Context, id string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collection, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &collection, nil
}

// List returns all collections in creation order.
func (s *CollectionStore) List(_ context.Context) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Collection, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.collections[id])
	}
	return result, nil
}

// Delete removes a collection.
func (s *CollectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ensure StudyUnitStore implements the interface.
var _ driven.StudyUnitStore = (*StudyUnitStore)(nil)

// StudyUnitStore is an in-memory implementation of driven.StudyUnitStore.
type StudyUnitStore struct {
	mu    sync.RWMutex
	units map[string]domain.StudyUnit
	order []string
}

// NewStudyUnitStore creates a new in-memory study unit store.
func NewStudyUnitStore() *StudyUnitStore {
	return &StudyUnitStore{units: make(map[string]domain.StudyUnit)}
}

// Save stores or updates a study unit.
func (s *StudyUnitStore) Save(_ context.Context, unit domain.StudyUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[unit.ID]; !ok {
		s.order = append(s.order, unit.ID)
	}
	s.units[unit.ID] = unit
	return nil
}

// Get retrieves a study unit by ID.
func (s *StudyUnitStore) Get(_ context.Context, id string) (*domain.StudyUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &unit, nil
}

// ListByCollection returns units for a collection in creation order.
func (s *StudyUnitStore) ListByCollection(_ context.Context, collectionID string) ([]domain.StudyUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.StudyUnit
	for _, id := range s.order {
		if unit := s.units[id]; unit.CollectionID == collectionID {
			result = append(result, unit)
		}
	}
	return result, nil
}

// Rename updates the unit name.
func (s *StudyUnitStore) Rename(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[id]
	if !ok {
		return domain.ErrNotFound
	}
	unit.Name = name
	s.units[id] = unit
	return nil
}

// Delete removes a unit.
func (s *StudyUnitStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
