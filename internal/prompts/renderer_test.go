package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

func sampleData() coaching.PromptData {
	st := coaching.NewSessionState("maria", "en")
	st.UserName = "Maria"
	st.CoachIntroduced = true
	st.KeyFacts = []string{"works in a bank"}
	st.ActionSteps = []string{"update CV"}
	return coaching.BuildPromptData("Coach Majkel Bagieta", st, nil)
}

func TestRenderBuiltinPrompt(t *testing.T) {
	r := NewCoachRenderer()

	out, err := r.Render(sampleData())
	require.NoError(t, err)

	assert.Contains(t, out, "You are Coach Majkel Bagieta")
	assert.Contains(t, out, "Phase: INTRODUCTION")
	assert.Contains(t, out, "Current language code: en")
	assert.Contains(t, out, "- Name: Maria")
	assert.Contains(t, out, "- Goal for this conversation: unknown")
	assert.Contains(t, out, "what they want to work on")
	assert.Contains(t, out, "- works in a bank")
	assert.Contains(t, out, "- update CV")
	assert.NotContains(t, out, "INSIGHTS SO FAR")
}

func TestRenderAsksForIntroductionFirst(t *testing.T) {
	st := coaching.NewSessionState("x", "")
	out, err := NewCoachRenderer().Render(coaching.BuildPromptData("Coach", st, nil))
	require.NoError(t, err)
	assert.Contains(t, out, "Introduce yourself by name")
}

func TestLocalOverrideWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CoachSystemPromptID+TemplateExt)
	require.NoError(t, os.WriteFile(path, []byte("custom {{.Core.CoachName}} / {{.Session.TurnCount}}"), 0644))

	reg := NewPromptRegistry()
	loaded, err := reg.LoadOverrideDir(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	r := NewRenderer(reg, CoachSystemPromptID)
	out, err := r.Render(sampleData())
	require.NoError(t, err)
	assert.Equal(t, "custom Coach Majkel Bagieta / 0", out)

	reg.Unregister(CoachSystemPromptID, PromptLocal)
	r.Invalidate()
	out, err = r.Render(sampleData())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# IDENTITY"))
}

func TestLoadOverrideRejectsBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.system.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .Core.CoachName "), 0644))

	_, err := NewPromptRegistry().LoadOverride(path)
	assert.Error(t, err)
}

func TestLoadOverrideDirMissing(t *testing.T) {
	loaded, err := NewPromptRegistry().LoadOverrideDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRegistryVersions(t *testing.T) {
	reg := NewPromptRegistry()
	reg.Register(&Prompt{ID: CoachSystemPromptID, Version: "2.0.0", Content: "v2", Deprecated: true})

	latest, err := reg.GetLatest(CoachSystemPromptID)
	require.NoError(t, err)
	assert.Equal(t, PromptV1, latest.Version, "deprecated versions lose to live ones")

	assert.Equal(t, []PromptVersion{PromptV1, "2.0.0"}, reg.Versions(CoachSystemPromptID))

	_, err = reg.Get("missing", PromptV1)
	assert.Error(t, err)
}

func TestTemplateWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	reg := NewPromptRegistry()
	r := NewRenderer(reg, CoachSystemPromptID)

	reloaded := make(chan []string, 4)
	w, err := NewTemplateWatcher(dir, reg, func(ids []string) {
		r.Invalidate()
		reloaded <- ids
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// write elsewhere and move into place so the watcher never sees a half-written file
	staging := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, os.WriteFile(staging, []byte("hot {{.Core.CoachName}}"), 0644))
	require.NoError(t, os.Rename(staging, filepath.Join(dir, CoachSystemPromptID+TemplateExt)))

	select {
	case ids := <-reloaded:
		assert.Contains(t, ids, CoachSystemPromptID)
	case <-time.After(5 * time.Second):
		t.Fatal("template was not reloaded")
	}

	out, err := r.Render(sampleData())
	require.NoError(t, err)
	assert.Equal(t, "hot Coach Majkel Bagieta", out)
}
