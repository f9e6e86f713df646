package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection groups study units under a single subject (a "module").
// It carries the opaque identifiers of the external services that notes
// for its units are published to.
type Collection struct {
	// ID is the unique identifier for the collection.
	ID string

	// Name is the human-readable subject name (e.g., "Land Law").
	Name string

	// ProjectName is the opaque external project identifier used when
	// assembling prompts. May be empty.
	ProjectName string

	// DatabaseID is the opaque document-store database identifier pages
	// are created in. May be empty until configured.
	DatabaseID string

	// CreatedAt is when the collection was created.
	CreatedAt time.Time

	// UpdatedAt is when the collection was last updated.
	UpdatedAt time.Time
}

// NewCollection creates a collection with a fresh ID and timestamps.
func NewCollection(name, projectName, databaseID string) Collection {
	now := time.Now().UTC()
	return Collection{
		ID:          uuid.NewString(),
		Name:        name,
		ProjectName: projectName,
		DatabaseID:  databaseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StudyUnit is a topic within a collection. Generations and material are
// scoped to a study unit. Immutable after creation except for rename.
type StudyUnit struct {
	// ID is the unique identifier for the study unit.
	ID string

	// CollectionID references the owning Collection.
	CollectionID string

	// Name is the topic name (e.g., "Easements").
	Name string

	// CreatedAt is when the unit was created.
	CreatedAt time.Time

	// UpdatedAt is when the unit was last updated.
	UpdatedAt time.Time
}

// NewStudyUnit creates a study unit with a fresh ID and timestamps.
func NewStudyUnit(collectionID, name string) StudyUnit {
	now := time.Now().UTC()
	return StudyUnit{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
