package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// Ensure MaterialStore implements the interface.
var _ driven.MaterialStore = (*MaterialStore)(nil)

// MaterialStore is an in-memory implementation of driven.MaterialStore.
// Upload order is preserved by an explicit insertion list.
type MaterialStore struct {
	mu    sync.RWMutex
	items map[string]domain.MaterialItem
	order []string
}

// NewMaterialStore creates a new in-memory material store.
func NewMaterialStore() *MaterialStore {
	return &MaterialStore{items: make(map[string]domain.MaterialItem)}
}

// Save stores or updates a material item.
func (s *MaterialStore) Save(_ context.Context, item domain.MaterialItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		s.order = append(s.order, item.ID)
	}
	s.items[item.ID] = item
	return nil
}

// Get retrieves a material item by ID.
func (s *MaterialStore) Get(_ context.Context, id string) (*domain.MaterialItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// ListForUnit returns items for a study unit in upload order.
func (s *MaterialStore) ListForUnit(_ context.Context, studyUnitID string, activeOnly bool) ([]domain.MaterialItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.MaterialItem
	for _, id := range s.order {
		item := s.items[id]
		if item.StudyUnitID != studyUnitID {
			continue
		}
		if activeOnly && !item.Active {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

// ActiveKinds returns the kinds with at least one active item.
func (s *MaterialStore) ActiveKinds(_ context.Context, studyUnitID string) (map[domain.MaterialKind]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make(map[domain.MaterialKind]bool)
	for _, item := range s.items {
		if item.StudyUnitID == studyUnitID && item.Active {
			kinds[item.Kind] = true
		}
	}
	return kinds, nil
}

// Deactivate soft-deletes an item.
func (s *MaterialStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Active = false
	s.items[id] = item
	return nil
}
