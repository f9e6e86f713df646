// Package notion implements the document publisher port against the
// Notion API.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driven.DocumentPublisher = (*Publisher)(nil)

// maxBlocksPerRequest is Notion's limit on children per create or append
// call. Larger pages are written in chunks.
const maxBlocksPerRequest = 100

// titleProperty is the database's title property name.
const titleProperty = "Name"

// Publisher writes pages to a Notion database.
type Publisher struct {
	client  *notionapi.Client
	limiter *RateLimiter
}

// NewPublisher creates a publisher authenticated with the given
// integration token.
func NewPublisher(token string) *Publisher {
	return &Publisher{
		client:  notionapi.NewClient(notionapi.Token(token)),
		limiter: NewRateLimiter(),
	}
}

// ConvertMarkdown transforms markdown text into Notion blocks. Pure and
// local; no API call is made.
func (p *Publisher) ConvertMarkdown(text string) ([]driven.Block, error) {
	return convertMarkdown(text)
}

// CreatePage creates a page in the database with the given title,
// properties and content blocks, chunking the block list as needed.
func (p *Publisher) CreatePage(ctx context.Context, databaseID, title string, props driven.PageProperties, blocks []driven.Block) (string, string, error) {
	children, err := toNotionBlocks(blocks)
	if err != nil {
		return "", "", err
	}

	initial := children
	var remaining []notionapi.Block
	if len(children) > maxBlocksPerRequest {
		initial = children[:maxBlocksPerRequest]
		remaining = children[maxBlocksPerRequest:]
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	page, err := p.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: pageProperties(title, props),
		Children:   initial,
	})
	if err != nil {
		return "", "", wrapError("create page", err)
	}

	pageID := string(page.ID)
	if err := p.appendChildren(ctx, pageID, remaining); err != nil {
		return "", "", err
	}

	logger.Debug("created notion page %s (%d blocks)", pageID, len(children))
	return pageID, page.URL, nil
}

// DeletePage archives a page. Notion has no hard delete; archiving moves
// the page to trash, which satisfies compensation.
func (p *Publisher) DeletePage(ctx context.Context, pageID string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := p.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{},
		Archived:   true,
	})
	if err != nil {
		return wrapError("archive page", err)
	}
	return nil
}

// SetPageStatus updates the Status select property of an existing page.
func (p *Publisher) SetPageStatus(ctx context.Context, pageID, status string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := p.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.SelectProperty{
				Select: notionapi.Option{Name: status},
			},
		},
	})
	if err != nil {
		return wrapError("update page status", err)
	}
	return nil
}

// appendChildren appends blocks in chunks of maxBlocksPerRequest.
func (p *Publisher) appendChildren(ctx context.Context, pageID string, blocks []notionapi.Block) error {
	for len(blocks) > 0 {
		chunk := blocks
		if len(chunk) > maxBlocksPerRequest {
			chunk = chunk[:maxBlocksPerRequest]
		}
		blocks = blocks[len(chunk):]

		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := p.client.Block.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{
			Children: chunk,
		})
		if err != nil {
			return wrapError("append blocks", err)
		}
	}
	return nil
}

// pageProperties builds the property payload: a title plus the Topic,
// Stage and Status selects and the Version number.
func pageProperties(title string, props driven.PageProperties) notionapi.Properties {
	return notionapi.Properties{
		titleProperty: notionapi.TitleProperty{
			Title: richText(title),
		},
		"Topic": notionapi.SelectProperty{
			Select: notionapi.Option{Name: props.Topic},
		},
		"Stage": notionapi.SelectProperty{
			Select: notionapi.Option{Name: props.Stage},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: props.Status},
		},
		"Version": notionapi.NumberProperty{
			Number: float64(props.Version),
		},
	}
}

// toNotionBlocks downcasts the opaque port blocks to Notion blocks.
func toNotionBlocks(blocks []driven.Block) ([]notionapi.Block, error) {
	result := make([]notionapi.Block, 0, len(blocks))
	for _, b := range blocks {
		nb, ok := b.(notionapi.Block)
		if !ok {
			return nil, fmt.Errorf("unexpected block type %T", b)
		}
		result = append(result, nb)
	}
	return result, nil
}
