package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies one of the three ordered synthesis phases.
type Stage string

// Stages in pipeline order. StageThree builds on a completed StageTwo.
const (
	StageOne   Stage = "STAGE_1"
	StageTwo   Stage = "STAGE_2"
	StageThree Stage = "STAGE_3"
)

// Stages lists all stages in pipeline order.
var Stages = []Stage{StageOne, StageTwo, StageThree}

// Index returns the position of the stage in pipeline order, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the stage is one of the declared stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Before reports whether s comes strictly before other in pipeline order.
func (s Stage) Before(other Stage) bool {
	return s.Index() >= 0 && other.Index() >= 0 && s.Index() < other.Index()
}

// ParseStage converts a stored string into a Stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.Valid() {
		return "", ErrInvalidInput
	}
	return stage, nil
}

// GenerationStatus tracks the lifecycle of a generation attempt.
// PENDING is the only non-terminal status.
type GenerationStatus string

const (
	// StatusPending means the prompt has been assembled but no response
	// has been recorded yet.
	StatusPending GenerationStatus = "PENDING"

	// StatusCompleted means the response has been recorded. Terminal.
	StatusCompleted GenerationStatus = "COMPLETED"

	// StatusFailed means the attempt was abandoned. Terminal; a fresh
	// version is started instead of retrying in place.
	StatusFailed GenerationStatus = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s GenerationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Generation is one versioned attempt at producing stage content for a
// study unit. Versions are dense per (unit, stage): 1, 2, 3, ... with no
// gaps, regardless of intervening failures.
type Generation struct {
	// ID is the unique identifier for the generation.
	ID string

	// StudyUnitID references the owning StudyUnit.
	StudyUnitID string

	// Stage is the synthesis phase this attempt belongs to.
	Stage Stage

	// Version is the per-(unit, stage) attempt number, starting at 1.
	Version int

	// Prompt is the assembled prompt text. Set at creation, immutable.
	Prompt string

	// ResponseText is the pasted response. Empty until COMPLETED.
	ResponseText string

	// PageID and PageURL reference the published document-store page.
	// Both empty until published; set exactly once.
	PageID  string
	PageURL string

	// BackupRef and BackupURL reference the backup-store file. Set
	// together with PageID/PageURL.
	BackupRef string
	BackupURL string

	// PreviousGenerationID references the completed lower-stage
	// generation whose response was embedded in the prompt. Only set for
	// STAGE_3, pointing at a STAGE_2 generation.
	PreviousGenerationID string

	// CreatedAt is when the attempt was started.
	CreatedAt time.Time

	// Status is the lifecycle state.
	Status GenerationStatus
}

// NewGeneration creates a pending generation with a fresh ID.
func NewGeneration(studyUnitID string, stage Stage, version int, prompt, previousGenerationID string) Generation {
	return Generation{
		ID:                   uuid.NewString(),
		StudyUnitID:          studyUnitID,
		Stage:                stage,
		Version:              version,
		Prompt:               prompt,
		PreviousGenerationID: previousGenerationID,
		CreatedAt:            time.Now().UTC(),
		Status:               StatusPending,
	}
}

// Published reports whether the generation's external references are set.
func (g *Generation) Published() bool {
	return g.PageID != ""
}
