package coaching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

func TestNewSessionStateDefaults(t *testing.T) {
	s := NewSessionState("anna", "")
	assert.Equal(t, "anna", s.UserID)
	assert.Equal(t, PhaseIntroduction, s.CurrentPhase)
	assert.Equal(t, DefaultLanguage, s.DetectedLanguage)
	assert.False(t, s.CoachIntroduced)
	assert.False(t, s.CreatedAt.IsZero())
	require.NoError(t, s.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSessionState("anna", "en")
	s.KeyFacts = []string{"a"}
	s.ConversationHistory = []engine.ChatMessage{{Role: engine.RoleUser, Content: "hi"}}

	c := s.Clone()
	c.KeyFacts[0] = "changed"
	c.ConversationHistory[0].Content = "changed"
	c.Topics = append(c.Topics, "t")

	assert.Equal(t, "a", s.KeyFacts[0])
	assert.Equal(t, "hi", s.ConversationHistory[0].Content)
	assert.Empty(t, s.Topics)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *SessionState)
	}{
		{"empty user", func(s *SessionState) { s.UserID = "" }},
		{"bad role", func(s *SessionState) {
			s.ConversationHistory = []engine.ChatMessage{{Role: engine.RoleSystem, Content: "x"}}
		}},
		{"unknown phase", func(s *SessionState) { s.CurrentPhase = "WANDERING" }},
		{"negative counter", func(s *SessionState) { s.ParaphrasesCount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionState("anna", "")
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestRecentHistory(t *testing.T) {
	s := NewSessionState("anna", "")
	for i := 0; i < 12; i++ {
		s = AddUserMessage(s, string(rune('a'+i)))
	}

	recent := s.RecentHistory(10)
	require.Len(t, recent, 10)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "l", recent[9].Content)

	recent[0].Content = "mutated"
	assert.Equal(t, "c", s.ConversationHistory[2].Content)

	assert.Len(t, s.RecentHistory(0), 12)
	assert.Len(t, s.RecentHistory(50), 12)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("CLOSING")
	require.NoError(t, err)
	assert.Equal(t, PhaseClosing, p)

	_, err = ParsePhase("closing")
	assert.Error(t, err)
}

func TestSessionStateJSONFieldNames(t *testing.T) {
	s := NewSessionState("anna", "")
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{
		"user_id", "conversation_history", "coach_introduced", "context_gathered",
		"detected_language", "current_phase", "detected_emotions", "key_facts", "topics",
		"key_insights", "action_steps", "paraphrases_count", "open_questions_count",
		"deepening_questions_count", "celebrations_count", "created_at",
	} {
		assert.Contains(t, m, key)
	}
}

func TestCoachResponseSchemaValidates(t *testing.T) {
	schema := CoachResponseSchema()
	valid := `{"analysis_summary":"a","coaching_phase":"EXPLORATION","question_type":"OPEN",
		"extracted_user_name":null,"detected_emotions":["joy"],"ai_response":"Hi"}`
	_, err := engine.ValidateResponse(schema, []byte(valid))
	require.NoError(t, err)

	missing := `{"analysis_summary":"a","coaching_phase":"EXPLORATION","ai_response":"Hi"}`
	_, err = engine.ValidateResponse(schema, []byte(missing))
	assert.True(t, engine.IsResponseValidation(err))

	badPhase := `{"analysis_summary":"a","coaching_phase":"SMALL_TALK","question_type":"OPEN","ai_response":"Hi"}`
	_, err = engine.ValidateResponse(schema, []byte(badPhase))
	assert.True(t, engine.IsResponseValidation(err))
}
