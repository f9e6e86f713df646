package driven

import (
	"context"
)

// Block is an opaque document-store block. ConvertMarkdown produces them
// and CreatePage consumes them; only the publisher adapter knows the
// concrete representation.
type Block any

// PageProperties is the structured metadata attached to a published page.
type PageProperties struct {
	// Topic is the study unit name.
	Topic string

	// Stage is the pipeline stage string (e.g., "STAGE_2").
	Stage string

	// Version is the generation version.
	Version int

	// Status is the lifecycle marker, "Current" at publication.
	Status string
}

// DocumentPublisher writes pages to the external document store.
//
// Implementations handle chunking when the store limits batch sizes; a
// single CreatePage call must succeed for arbitrarily large block lists.
// Rate-limit failures are reported wrapping domain.ErrRateLimited so the
// coordinator can apply bounded retry.
type DocumentPublisher interface {
	// ConvertMarkdown transforms markdown text into the store's native
	// block representation. Pure and local; a malformed-input failure
	// wraps domain.ErrContentConversion.
	ConvertMarkdown(text string) ([]Block, error)

	// CreatePage creates a page in the given database with the given
	// title, properties and content blocks.
	CreatePage(ctx context.Context, databaseID, title string, props PageProperties, blocks []Block) (pageID, pageURL string, err error)

	// DeletePage removes (archives) a page. Used as compensation when a
	// later publication step fails.
	DeletePage(ctx context.Context, pageID string) error

	// SetPageStatus updates the status property of an existing page
	// (e.g., marking a superseded version).
	SetPageStatus(ctx context.Context, pageID, status string) error
}
