package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driving"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages collections and study units.
type LibraryService struct {
	collections driven.CollectionStore
	units       driven.StudyUnitStore
}

// NewLibraryService creates a new library service.
func NewLibraryService(collections driven.CollectionStore, units driven.StudyUnitStore) *LibraryService {
	return &LibraryService{collections: collections, units: units}
}

// AddCollection creates a collection.
func (s *LibraryService) AddCollection(ctx context.Context, name, projectName, databaseID string) (*domain.Collection, error) {
	if s.collections == nil {
		return nil, domain.ErrNotImplemented
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name is required: %w", domain.ErrInvalidInput)
	}

	collection := domain.NewCollection(name, projectName, databaseID)
	if err := s.collections.Save(ctx, collection); err != nil {
		return nil, fmt.Errorf("saving collection: %w", err)
	}
	return &collection, nil
}

// GetCollection retrieves a collection by ID.
func (s *LibraryService) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	if s.collections == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.collections.Get(ctx, id)
}

// ListCollections returns all collections.
func (s *LibraryService) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	if s.collections == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.collections.List(ctx)
}

// AddUnit creates a study unit inside a collection.
func (s *LibraryService) AddUnit(ctx context.Context, collectionID, name string) (*domain.StudyUnit, error) {
	if s.units == nil || s.collections == nil {
		return nil, domain.ErrNotImplemented
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("unit name is required: %w", domain.ErrInvalidInput)
	}

	// Verify the collection exists before attaching a unit to it.
	if _, err := s.collections.Get(ctx, collectionID); err != nil {
		return nil, fmt.Errorf("resolving collection %s: %w", collectionID, err)
	}

	unit := domain.NewStudyUnit(collectionID, name)
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, fmt.Errorf("saving study unit: %w", err)
	}
	return &unit, nil
}

// GetUnit retrieves a study unit by ID.
func (s *LibraryService) GetUnit(ctx context.Context, id string) (*domain.StudyUnit, error) {
	if s.units == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.units.Get(ctx, id)
}

// ListUnits returns the units of a collection in creation order.
func (s *LibraryService) ListUnits(ctx context.Context, collectionID string) ([]domain.StudyUnit, error) {
	if s.units == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.units.ListByCollection(ctx, collectionID)
}

// RenameUnit changes a unit's name.
func (s *LibraryService) RenameUnit(ctx context.Context, id, name string) error {
	if s.units == nil {
		return domain.ErrNotImplemented
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("unit name is required: %w", domain.ErrInvalidInput)
	}
	return s.units.Rename(ctx, id, name)
}
