package notion

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

// maxRichTextLength is Notion's per-rich-text character limit. Longer
// content is truncated with an ellipsis rather than rejected.
const maxRichTextLength = 2000

var orderedItemRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)

// convertMarkdown turns markdown text into Notion blocks, line by line.
//
// Supported constructs: headings (deeper than h3 clamped to h3, Notion's
// maximum), paragraphs, bulleted and numbered lists, fenced code blocks,
// quotes and dividers. Inline formatting is passed through as plain text.
func convertMarkdown(text string) ([]driven.Block, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty markdown input: %w", domain.ErrContentConversion)
	}

	var blocks []driven.Block
	var paragraph []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		blocks = append(blocks, paragraphBlock(strings.Join(paragraph, " ")))
		paragraph = nil
	}

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushParagraph()

		case strings.HasPrefix(trimmed, "```"):
			flushParagraph()
			language := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
					break
				}
				code = append(code, lines[i])
			}
			blocks = append(blocks, codeBlock(strings.Join(code, "\n"), language))

		case strings.HasPrefix(trimmed, "#"):
			flushParagraph()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			content := strings.TrimSpace(trimmed[level:])
			if content == "" {
				continue
			}
			// Notion only supports h1-h3.
			if level > 3 {
				level = 3
			}
			blocks = append(blocks, headingBlock(level, content))

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			blocks = append(blocks, bulletBlock(strings.TrimSpace(trimmed[2:])))

		case orderedItemRe.MatchString(trimmed):
			flushParagraph()
			content := orderedItemRe.FindStringSubmatch(trimmed)[1]
			blocks = append(blocks, numberedBlock(content))

		case strings.HasPrefix(trimmed, "> "):
			flushParagraph()
			blocks = append(blocks, quoteBlock(strings.TrimSpace(trimmed[2:])))

		case trimmed == "---" || trimmed == "***":
			flushParagraph()
			blocks = append(blocks, dividerBlock())

		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()

	return blocks, nil
}

// richText builds a single plain rich-text span, truncating to Notion's
// per-span limit. The limit counts characters, not bytes, so truncation
// works on runes to keep multibyte content valid UTF-8.
func richText(content string) []notionapi.RichText {
	if utf8.RuneCountInString(content) > maxRichTextLength {
		runes := []rune(content)
		content = string(runes[:maxRichTextLength-3]) + "..."
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}}
}

func paragraphBlock(content string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{RichText: richText(content)},
	}
}

func headingBlock(level int, content string) notionapi.Block {
	heading := notionapi.Heading{RichText: richText(content)}
	switch level {
	case 1:
		return &notionapi.Heading1Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading1,
			},
			Heading1: heading,
		}
	case 2:
		return &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading2,
			},
			Heading2: heading,
		}
	default:
		return &notionapi.Heading3Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading3,
			},
			Heading3: heading,
		}
	}
}

func bulletBlock(content string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{RichText: richText(content)},
	}
}

func numberedBlock(content string) notionapi.Block {
	return &notionapi.NumberedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeNumberedListItem,
		},
		NumberedListItem: notionapi.ListItem{RichText: richText(content)},
	}
}

func codeBlock(content, language string) notionapi.Block {
	if language == "" {
		language = "plain text"
	}
	return &notionapi.CodeBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeCode,
		},
		Code: notionapi.Code{RichText: richText(content), Language: language},
	}
}

func quoteBlock(content string) notionapi.Block {
	return &notionapi.QuoteBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeQuote,
		},
		Quote: notionapi.Quote{RichText: richText(content)},
	}
}

func dividerBlock() notionapi.Block {
	return &notionapi.DividerBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeDivider,
		},
		Divider: notionapi.Divider{},
	}
}
