package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRenderer_DefaultTemplates(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(domain.StageOne, driven.PromptInput{
		UnitName:       "Easements",
		CollectionName: "Land Law",
		FileNames:      []string{"lecture.pdf"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Easements")
	assert.Contains(t, out, "Land Law")
	assert.Contains(t, out, "- lecture.pdf")
}

func TestRenderer_StageThreeEmbedsPriorResponse(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(domain.StageThree, driven.PromptInput{
		UnitName:       "Easements",
		CollectionName: "Land Law",
		FileNames:      []string{"lecture.pdf", "transcript.txt"},
		PriorResponse:  "## Consolidated notes body",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "## Consolidated notes body")
	assert.Contains(t, out, "- transcript.txt")
}

func TestRenderer_UnknownStage(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(domain.Stage("STAGE_9"), driven.PromptInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderer_CreatesEditableFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(domain.StageOne, driven.PromptInput{UnitName: "x"})
	require.NoError(t, err)

	for _, stage := range domain.Stages {
		_, err := os.Stat(filepath.Join(dir, templateFileName(stage)))
		assert.NoError(t, err, "template file for %s", stage)
	}
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestRenderer_CustomTemplateAfterReload(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	require.NoError(t, err)
	defer r.Close()

	// First render materialises the defaults and warms the cache.
	_, err = r.Render(domain.StageOne, driven.PromptInput{UnitName: "Easements"})
	require.NoError(t, err)

	custom := "Custom prompt for {{.UnitName}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, templateFileName(domain.StageOne)), []byte(custom), 0600))
	r.Reload()

	out, err := r.Render(domain.StageOne, driven.PromptInput{UnitName: "Easements"})
	require.NoError(t, err)
	assert.Equal(t, "Custom prompt for Easements", out)
}

func TestRenderer_Deterministic(t *testing.T) {
	r := newTestRenderer(t)
	input := driven.PromptInput{
		UnitName:       "Easements",
		CollectionName: "Land Law",
		FileNames:      []string{"a.pdf", "b.pdf"},
	}

	first, err := r.Render(domain.StageTwo, input)
	require.NoError(t, err)
	second, err := r.Render(domain.StageTwo, input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
