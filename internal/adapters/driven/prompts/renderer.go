// Package prompts renders stage prompts from user-editable template files
// on disk, with fallback to embedded defaults.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
	"github.com/custodia-labs/studyflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/studyflow-cli/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.PromptRenderer = (*Renderer)(nil)

// Renderer loads stage templates from a configurable directory with
// fallback to embedded defaults.
//
// The renderer uses lazy initialisation - files are only created when first
// accessed, not in the constructor. This makes testing easier and avoids
// unexpected I/O. A file watcher invalidates the parsed-template cache when
// a template is edited, so changes take effect without restarting.
type Renderer struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[domain.Stage]*template.Template
	initOnce  sync.Once
	initErr   error
	watcher   *fsnotify.Watcher
}

// defaultTemplates contains embedded default templates.
// These are used when user files don't exist and as the initial content for
// new files. Variables: .CollectionName, .UnitName, .FileNames and, for the
// final stage, .PriorResponse.
//
//nolint:lll // Template content is intentionally long and should not be wrapped.
var defaultTemplates = map[domain.Stage]string{
	domain.StageOne: `You are producing first-pass study notes for the topic "{{.UnitName}}" in the module "{{.CollectionName}}".

Work only from the uploaded files:
{{range .FileNames}}- {{.}}
{{end}}
Produce structured markdown notes that follow the lecture's own order. Capture every definition, rule and authority mentioned. Do not add material that is not in the files.`,

	domain.StageTwo: `You are producing consolidated study notes for the topic "{{.UnitName}}" in the module "{{.CollectionName}}".

Work from all of the uploaded files:
{{range .FileNames}}- {{.}}
{{end}}
Merge the lecture, source material and tutorial content into a single coherent set of markdown notes. Reconcile any differences between the sources, keep every cited authority, and organise the result by theme rather than by file.`,

	domain.StageThree: `You are producing the final revision notes for the topic "{{.UnitName}}" in the module "{{.CollectionName}}".

The consolidated notes from the previous pass are below. Refine them using all of the uploaded files, including the transcript:
{{range .FileNames}}- {{.}}
{{end}}
Previous notes:

{{.PriorResponse}}

Tighten the structure, fill gaps the transcript reveals, and finish with a short list of likely examination points. Output markdown only.`,
}

// templateFileName maps a stage to its on-disk file name.
func templateFileName(stage domain.Stage) string {
	return strings.ToLower(string(stage)) + ".tmpl"
}

// NewRenderer creates a new file-based prompt renderer.
// If promptDir is empty, defaults to ~/.studyflow/prompts/.
//
// The constructor does not perform any I/O - directory creation and file
// writes happen lazily on first Render() call.
func NewRenderer(promptDir string) (*Renderer, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".studyflow", "prompts")
	}

	return &Renderer{
		promptDir: promptDir,
		cache:     make(map[domain.Stage]*template.Template),
	}, nil
}

// Render assembles the prompt for the stage from its template.
// On first call, initialises the prompt directory and creates default files.
func (r *Renderer) Render(stage domain.Stage, input driven.PromptInput) (string, error) {
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q: %w", stage, domain.ErrInvalidInput)
	}

	tmpl, err := r.load(stage)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, input); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", stage, err)
	}
	return sb.String(), nil
}

// Dir returns the prompt directory path.
func (r *Renderer) Dir() string {
	return r.promptDir
}

// Close stops the file watcher, if one was started.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// load returns the parsed template for the stage, from cache when warm.
func (r *Renderer) load(stage domain.Stage) (*template.Template, error) {
	r.initOnce.Do(r.initialise)
	if r.initErr != nil {
		// Fall back to embedded defaults if init failed.
		return template.New(string(stage)).Parse(defaultTemplates[stage])
	}

	r.mu.RLock()
	if tmpl, ok := r.cache[stage]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	text, err := r.loadFromFile(stage)
	if err != nil {
		// Fall back to embedded default.
		text = defaultTemplates[stage]
	}

	tmpl, err := template.New(string(stage)).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", stage, err)
	}

	// Double-check pattern to avoid overwriting concurrent loads.
	r.mu.Lock()
	if cached, ok := r.cache[stage]; ok {
		tmpl = cached
	} else {
		r.cache[stage] = tmpl
	}
	r.mu.Unlock()

	return tmpl, nil
}

// Reload clears the template cache, forcing fresh loads from disk.
func (r *Renderer) Reload() {
	r.mu.Lock()
	r.cache = make(map[domain.Stage]*template.Template)
	r.mu.Unlock()
}

// initialise creates the prompt directory, default files and the watcher.
// Called once via sync.Once on first Render().
func (r *Renderer) initialise() {
	if err := os.MkdirAll(r.promptDir, 0700); err != nil {
		r.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default template files (only if they don't exist)
	for stage, content := range defaultTemplates {
		path := filepath.Join(r.promptDir, templateFileName(stage))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				r.initErr = fmt.Errorf("create default template %q: %w", stage, err)
				return
			}
		}
	}

	if err := r.createReadme(); err != nil {
		r.initErr = err
		return
	}

	r.watch()
}

// watch invalidates the cache when a template file changes. Best-effort:
// without a watcher, edits still apply after the next Reload.
func (r *Renderer) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("prompt watcher unavailable: %v", err)
		return
	}
	if err := watcher.Add(r.promptDir); err != nil {
		logger.Warn("watching prompt directory: %v", err)
		watcher.Close()
		return
	}

	r.mu.Lock()
	r.watcher = watcher
	r.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					logger.Debug("prompt template changed: %s", event.Name)
					r.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("prompt watcher: %v", err)
			}
		}
	}()
}

// loadFromFile reads a stage template from disk.
func (r *Renderer) loadFromFile(stage domain.Stage) (string, error) {
	path := filepath.Join(r.promptDir, templateFileName(stage))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (r *Renderer) createReadme() error {
	path := filepath.Join(r.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# StudyFlow Prompts

This directory contains the customisable templates used to assemble stage
prompts.

## Files

- ` + "`stage_1.tmpl`" + ` - First-pass notes from the lecture
- ` + "`stage_2.tmpl`" + ` - Consolidated notes from all material
- ` + "`stage_3.tmpl`" + ` - Final revision notes building on stage 2

## Customisation

Edit any file to change how prompts are assembled. Changes take effect on
the next command.

## Template Variables

Templates use Go text/template syntax:
- ` + "`{{.CollectionName}}`" + ` - The module name
- ` + "`{{.UnitName}}`" + ` - The topic name
- ` + "`{{.FileNames}}`" + ` - The uploaded file names (a list)
- ` + "`{{.PriorResponse}}`" + ` - The previous stage's notes (stage 3 only)

Ensure customised templates keep the variables they need.
`
	return os.WriteFile(path, []byte(content), 0600)
}
