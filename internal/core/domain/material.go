package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaterialKind classifies an uploaded source file.
type MaterialKind string

// Material kinds in declaration order. Missing-requirement lists are
// reported in this order, so it is part of the observable contract.
const (
	KindPrimaryLecture   MaterialKind = "PRIMARY_LECTURE"
	KindSourceMaterial   MaterialKind = "SOURCE_MATERIAL"
	KindTutorialMaterial MaterialKind = "TUTORIAL_MATERIAL"
	KindTranscript       MaterialKind = "TRANSCRIPT"
)

// MaterialKinds lists all kinds in declaration order.
var MaterialKinds = []MaterialKind{
	KindPrimaryLecture,
	KindSourceMaterial,
	KindTutorialMaterial,
	KindTranscript,
}

// materialLabels maps each kind to its human-readable label.
var materialLabels = map[MaterialKind]string{
	KindPrimaryLecture:   "Primary Lecture",
	KindSourceMaterial:   "Source Material",
	KindTutorialMaterial: "Tutorial Material",
	KindTranscript:       "Transcript",
}

// Label returns the human-readable label for the kind.
func (k MaterialKind) Label() string {
	if label, ok := materialLabels[k]; ok {
		return label
	}
	return string(k)
}

// Valid reports whether the kind is one of the declared kinds.
func (k MaterialKind) Valid() bool {
	_, ok := materialLabels[k]
	return ok
}

// ParseMaterialKind converts a stored string into a MaterialKind.
func ParseMaterialKind(s string) (MaterialKind, error) {
	k := MaterialKind(s)
	if !k.Valid() {
		return "", ErrInvalidInput
	}
	return k, nil
}

// MaterialItem is an uploaded source file attached to a study unit.
//
// Items are never physically removed. Deletion flips Active to false so
// that generations produced while the item was present keep a valid
// reference (tombstone pattern).
type MaterialItem struct {
	// ID is the unique identifier for the item.
	ID string

	// StudyUnitID references the owning StudyUnit.
	StudyUnitID string

	// Kind classifies the file.
	Kind MaterialKind

	// FileName is the display file name as uploaded.
	FileName string

	// StorageRef is the backup-store file reference, if uploaded.
	StorageRef string

	// StorageURL is the backup-store view URL, if uploaded.
	StorageURL string

	// SizeBytes is the file size at upload time.
	SizeBytes int64

	// UploadedAt is when the item was uploaded.
	UploadedAt time.Time

	// Active is false once the item has been soft-deleted.
	Active bool
}

// NewMaterialItem creates an active material item with a fresh ID.
func NewMaterialItem(studyUnitID string, kind MaterialKind, fileName string, sizeBytes int64) MaterialItem {
	return MaterialItem{
		ID:          uuid.NewString(),
		StudyUnitID: studyUnitID,
		Kind:        kind,
		FileName:    fileName,
		SizeBytes:   sizeBytes,
		UploadedAt:  time.Now().UTC(),
		Active:      true,
	}
}
