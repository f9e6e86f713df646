package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driving"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure MaterialService implements the interface.
var _ driving.MaterialService = (*MaterialService)(nil)

// MaterialService manages uploaded course material.
type MaterialService struct {
	collections driven.CollectionStore
	units       driven.StudyUnitStore
	material    driven.MaterialStore
	backup      driven.BackupStore
	rootFolder  string
}

// NewMaterialService creates a new material service. backup may be nil, in
// which case items are recorded without a backup upload.
func NewMaterialService(
	collections driven.CollectionStore,
	units driven.StudyUnitStore,
	material driven.MaterialStore,
	backup driven.BackupStore,
	rootFolder string,
) *MaterialService {
	return &MaterialService{
		collections: collections,
		units:       units,
		material:    material,
		backup:      backup,
		rootFolder:  rootFolder,
	}
}

// AddMaterial records an uploaded file for a unit. When content is non-nil
// and a backup store is configured, the bytes are uploaded first under
// {root}/{collection}/{unit}/ and the item carries the references.
func (s *MaterialService) AddMaterial(ctx context.Context, studyUnitID string, kind domain.MaterialKind, fileName string, content []byte) (*domain.MaterialItem, error) {
	if s.material == nil || s.units == nil {
		return nil, domain.ErrNotImplemented
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown material kind %q: %w", kind, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("file name is required: %w", domain.ErrInvalidInput)
	}

	unit, err := s.units.Get(ctx, studyUnitID)
	if err != nil {
		return nil, fmt.Errorf("resolving study unit %s: %w", studyUnitID, err)
	}

	item := domain.NewMaterialItem(studyUnitID, kind, fileName, int64(len(content)))

	if content != nil && s.backup != nil {
		collection, err := s.collections.Get(ctx, unit.CollectionID)
		if err != nil {
			return nil, fmt.Errorf("resolving collection %s: %w", unit.CollectionID, err)
		}

		segments := []string{collection.Name, unit.Name}
		if s.rootFolder != "" {
			segments = append([]string{s.rootFolder}, segments...)
		}
		folderRef, err := s.backup.EnsureFolderPath(ctx, segments)
		if err != nil {
			return nil, fmt.Errorf("preparing backup folder: %w", err)
		}

		fileRef, fileURL, err := s.backup.UploadFile(ctx, folderRef, fileName, content)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", fileName, err)
		}
		item.StorageRef = fileRef
		item.StorageURL = fileURL
		logger.Debug("uploaded %s (%d bytes) to backup store", fileName, len(content))
	}

	if err := s.material.Save(ctx, item); err != nil {
		// Trash the uploaded copy so a failed save leaves no orphan in
		// the backup store. Best-effort; the save error is what matters.
		if item.StorageRef != "" && s.backup != nil {
			if trashErr := s.backup.TrashFile(ctx, item.StorageRef); trashErr != nil {
				logger.Warn("trashing orphaned backup file %s: %v", item.StorageRef, trashErr)
			}
		}
		return nil, fmt.Errorf("saving material item: %w", err)
	}
	return &item, nil
}

// ListMaterial returns a unit's items in upload order.
func (s *MaterialService) ListMaterial(ctx context.Context, studyUnitID string, activeOnly bool) ([]domain.MaterialItem, error) {
	if s.material == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.material.ListForUnit(ctx, studyUnitID, activeOnly)
}

// RemoveMaterial soft-deletes an item. The backup file, if any, is left in
// place: generations produced while the item was active keep working
// references.
func (s *MaterialService) RemoveMaterial(ctx context.Context, id string) error {
	if s.material == nil {
		return domain.ErrNotImplemented
	}
	return s.material.Deactivate(ctx, id)
}
