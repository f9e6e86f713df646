package driven

import "github.com/custodia-labs/studyflow-cli/internal/core/domain"

// PromptInput carries the variables a stage template is rendered with.
type PromptInput struct {
	// UnitName is the study unit (topic) name.
	UnitName string

	// CollectionName is the owning collection (module) name.
	CollectionName string

	// FileNames lists the relevant uploaded file names in upload order.
	FileNames []string

	// PriorResponse is the completed lower-stage response text embedded
	// into the prompt. Empty for stages without a prior-stage input.
	PriorResponse string
}

// PromptRenderer assembles the prompt text for a stage.
//
// Render must be deterministic: identical inputs produce identical output.
type PromptRenderer interface {
	Render(stage domain.Stage, input PromptInput) (string, error)
}
