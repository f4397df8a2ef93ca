package prompts

import (
	"fmt"
	"sort"
	"sync"
)

// PromptRegistry manages versioned prompt templates.
type PromptRegistry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt // ID -> Version -> Prompt
}

// NewPromptRegistry creates a registry preloaded with the built-in templates.
func NewPromptRegistry() *PromptRegistry {
	r := &PromptRegistry{
		prompts: make(map[string]map[PromptVersion]*Prompt),
	}
	for _, p := range builtinPrompts() {
		r.Register(p)
	}
	return r
}

// Register registers a prompt, replacing any prompt with the same ID and version.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Unregister removes one version of a prompt.
func (r *PromptRegistry) Unregister(id string, version PromptVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if versions, ok := r.prompts[id]; ok {
		delete(versions, version)
	}
}

// Get retrieves a specific version of a prompt.
func (r *PromptRegistry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	prompt, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}

	return prompt, nil
}

// Resolve returns the local override of id when one is registered, otherwise
// the latest non-deprecated built-in version.
func (r *PromptRegistry) Resolve(id string) (*Prompt, error) {
	if p, err := r.Get(id, PromptLocal); err == nil {
		return p, nil
	}
	return r.GetLatest(id)
}

// GetLatest retrieves the latest built-in version of a prompt, preferring
// non-deprecated ones.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	for _, deprecatedPass := range []bool{false, true} {
		for version, prompt := range versions {
			if version == PromptLocal || (prompt.Deprecated && !deprecatedPass) {
				continue
			}
			if latest == nil || version > latest.Version {
				latest = prompt
			}
		}
		if latest != nil {
			return latest, nil
		}
	}

	return nil, fmt.Errorf("no versions found for prompt: %s", id)
}

// Versions returns all versions registered for id, sorted.
func (r *PromptRegistry) Versions(id string) []PromptVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil
	}

	result := make([]PromptVersion, 0, len(versions))
	for version := range versions {
		result = append(result, version)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
