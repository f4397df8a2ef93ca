package prompts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// TemplateExt is the extension of override templates on disk.
const TemplateExt = ".tmpl"

var funcs = template.FuncMap{
	"join": strings.Join,
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}

// Renderer renders the coach system prompt from the registry.
// Parsed templates are cached until Invalidate is called.
type Renderer struct {
	registry *PromptRegistry
	id       string

	mu     sync.Mutex
	cached *template.Template
}

// NewRenderer creates a renderer for prompt id.
func NewRenderer(registry *PromptRegistry, id string) *Renderer {
	return &Renderer{registry: registry, id: id}
}

// NewCoachRenderer is a renderer over the built-in registry.
func NewCoachRenderer() *Renderer {
	return NewRenderer(NewPromptRegistry(), CoachSystemPromptID)
}

// Registry exposes the registry the renderer reads from.
func (r *Renderer) Registry() *PromptRegistry { return r.registry }

// Render implements coaching.PromptRenderer.
func (r *Renderer) Render(data coaching.PromptData) (string, error) {
	tmpl, err := r.template()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", r.id, err)
	}
	return buf.String(), nil
}

// Invalidate drops the parsed template so the next Render re-reads the registry.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

func (r *Renderer) template() (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	p, err := r.registry.Resolve(r.id)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(p.ID).Funcs(funcs).Option("missingkey=zero").Parse(p.Content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s@%s: %w", p.ID, p.Version, err)
	}
	r.cached = tmpl
	return tmpl, nil
}

// LoadOverride registers path as the local version of the prompt named after
// the file (coach.system.tmpl -> "coach.system"). The template must parse.
func (r *PromptRegistry) LoadOverride(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), TemplateExt)
	if _, err := template.New(id).Funcs(funcs).Parse(string(data)); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	p := &Prompt{
		ID:          id,
		Version:     PromptLocal,
		Content:     string(data),
		Description: "loaded from " + path,
		Source:      path,
	}
	r.Register(p)
	return p, nil
}

// LoadOverrideDir registers every *.tmpl file in dir. A missing dir is not an
// error.
func (r *PromptRegistry) LoadOverrideDir(dir string) ([]*Prompt, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list template directory: %w", err)
	}

	var loaded []*Prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TemplateExt) {
			continue
		}
		p, err := r.LoadOverride(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
