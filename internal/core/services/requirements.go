package services

import (
	"fmt"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// stageRequirement declares what a stage needs before it may run.
// Table-driven so a new stage is a new row, not a new code path.
type stageRequirement struct {
	// kinds are the material kinds that must be active for the unit.
	kinds []domain.MaterialKind

	// priorStage, when non-empty, must have a COMPLETED generation for
	// the same unit.
	priorStage domain.Stage
}

var stageRequirements = map[domain.Stage]stageRequirement{
	domain.StageOne: {
		kinds: []domain.MaterialKind{domain.KindPrimaryLecture},
	},
	domain.StageTwo: {
		kinds: []domain.MaterialKind{
			domain.KindPrimaryLecture,
			domain.KindSourceMaterial,
			domain.KindTutorialMaterial,
		},
	},
	domain.StageThree: {
		kinds: []domain.MaterialKind{
			domain.KindPrimaryLecture,
			domain.KindSourceMaterial,
			domain.KindTutorialMaterial,
			domain.KindTranscript,
		},
		priorStage: domain.StageTwo,
	},
}

// RequiredKinds returns the material kinds a stage needs, in declaration
// order. The returned slice must not be mutated.
func RequiredKinds(stage domain.Stage) []domain.MaterialKind {
	return stageRequirements[stage].kinds
}

// RequiredPriorStage returns the stage whose completion the given stage
// depends on, or "" when there is no prior-stage requirement.
func RequiredPriorStage(stage domain.Stage) domain.Stage {
	return stageRequirements[stage].priorStage
}

// priorStageLabel is the distinguished missing-requirement entry for an
// incomplete prior stage. Always ordered after the material-kind entries.
func priorStageLabel(prior domain.Stage) string {
	return fmt.Sprintf("Prior stage (%s) completed", prior)
}
