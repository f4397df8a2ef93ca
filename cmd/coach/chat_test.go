package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/config"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/prompts"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/session"
)

type scriptedCaller struct{}

func (scriptedCaller) Call(_ context.Context, _ []engine.ChatMessage, schema engine.ResponseSchema, out any) error {
	if schema.Name == coaching.ResponseSchemaName {
		return json.Unmarshal([]byte(`{
			"coaching_phase": "INTRODUCTION",
			"question_type": "OPEN",
			"extracted_user_name": "Ala",
			"response_language": "pl",
			"ai_response": "Cześć Ala, nad czym chcesz dziś popracować?"
		}`), out)
	}
	return json.Unmarshal([]byte(`{"key_discoveries":[],"emotions_explored":[],"topics_covered":[],"action_steps":[],"summary_text":"Pierwsza rozmowa."}`), out)
}

func testEnv(t *testing.T) (*runtimeEnv, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	cfg := config.Defaults()
	return &runtimeEnv{
		Config: cfg,
		Logger: zap.NewNop(),
		Coach:  coaching.NewCoach(store, prompts.NewCoachRenderer(), scriptedCaller{}, coaching.DefaultOptions()),
	}, store
}

func TestRunChatTurnsAndCommands(t *testing.T) {
	env, store := testEnv(t)
	userID = "ala"
	t.Cleanup(func() { userID = "" })

	in := strings.NewReader("Cześć, jestem Ala\n\n/summary\n/state\n/reset\n/bogus\n/quit\nnever read\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), env, in, &out))

	text := out.String()
	assert.Contains(t, text, "coach> Cześć Ala, nad czym chcesz dziś popracować?")
	assert.Contains(t, text, "Pierwsza rozmowa.")
	assert.Contains(t, text, `"user_name": "Ala"`)
	assert.Contains(t, text, "session cleared")
	assert.Contains(t, text, "unknown command /bogus")

	ok, err := store.Exists(context.Background(), "ala")
	require.NoError(t, err)
	assert.False(t, ok, "reset removes the stored session")
}

func TestRunChatEndsOnEOF(t *testing.T) {
	env, _ := testEnv(t)
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), env, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "user: default_user")
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "chat", "evaluate", "reset", "export", "summarize", "users", "version"})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "coach "+version+"\n", out.String())
}
