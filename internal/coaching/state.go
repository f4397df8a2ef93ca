// Package coaching holds the per-user coaching session state, the structured
// response contract the model fills every turn, and the pure update engine
// that folds one into the other.
package coaching

import (
	"fmt"
	"time"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// DefaultLanguage is used for detected_language until the model reports one.
const DefaultLanguage = "pl"

// Phase is the coaching stage the model reports for the current turn.
type Phase string

const (
	PhaseIntroduction     Phase = "INTRODUCTION"
	PhaseContextGathering Phase = "CONTEXT_GATHERING"
	PhaseExploration      Phase = "EXPLORATION"
	PhaseDeepening        Phase = "DEEPENING"
	PhaseRedirecting      Phase = "REDIRECTING"
	PhaseSummarizing      Phase = "SUMMARIZING"
	PhaseActionPlanning   Phase = "ACTION_PLANNING"
	PhaseClosing          Phase = "CLOSING"
)

// Phases lists every phase in declaration order.
var Phases = []Phase{
	PhaseIntroduction,
	PhaseContextGathering,
	PhaseExploration,
	PhaseDeepening,
	PhaseRedirecting,
	PhaseSummarizing,
	PhaseActionPlanning,
	PhaseClosing,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePhase converts s into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown coaching phase: %q", s)
	}
	return p, nil
}

// QuestionType classifies the question the coach asked in its reply.
type QuestionType string

const (
	QuestionOpen        QuestionType = "OPEN"
	QuestionClosed      QuestionType = "CLOSED"
	QuestionParaphrase  QuestionType = "PARAPHRASE"
	QuestionDeepening   QuestionType = "DEEPENING"
	QuestionCelebration QuestionType = "CELEBRATION"
	QuestionSummary     QuestionType = "SUMMARY"
	QuestionNone        QuestionType = "NONE"
)

// QuestionTypes lists every question type in declaration order.
var QuestionTypes = []QuestionType{
	QuestionOpen,
	QuestionClosed,
	QuestionParaphrase,
	QuestionDeepening,
	QuestionCelebration,
	QuestionSummary,
	QuestionNone,
}

// SessionState is everything remembered about one user's coaching session.
// History is append-only and never truncated in storage; the prompt uses a
// window over it instead.
type SessionState struct {
	UserID              string               `json:"user_id"`
	ConversationHistory []engine.ChatMessage `json:"conversation_history"`

	UserName        string `json:"user_name,omitempty"`
	MainGoal        string `json:"main_goal,omitempty"`
	CoachIntroduced bool   `json:"coach_introduced"`
	ContextGathered bool   `json:"context_gathered"`

	DetectedLanguage string `json:"detected_language"`
	CurrentPhase     Phase  `json:"current_phase"`

	DetectedEmotions []string `json:"detected_emotions"`
	KeyFacts         []string `json:"key_facts"`
	Topics           []string `json:"topics"`
	KeyInsights      []string `json:"key_insights"`
	ActionSteps      []string `json:"action_steps"`
	ActionPlan       string   `json:"action_plan,omitempty"`
	SessionSummary   string   `json:"session_summary,omitempty"`

	ParaphrasesCount        int `json:"paraphrases_count"`
	OpenQuestionsCount      int `json:"open_questions_count"`
	DeepeningQuestionsCount int `json:"deepening_questions_count"`
	CelebrationsCount       int `json:"celebrations_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewSessionState returns the initial state for a user who has never talked
// to the coach.
func NewSessionState(userID, language string) *SessionState {
	if language == "" {
		language = DefaultLanguage
	}
	now := time.Now().UTC()
	return &SessionState{
		UserID:              userID,
		ConversationHistory: []engine.ChatMessage{},
		DetectedLanguage:    language,
		CurrentPhase:        PhaseIntroduction,
		DetectedEmotions:    []string{},
		KeyFacts:            []string{},
		Topics:              []string{},
		KeyInsights:         []string{},
		ActionSteps:         []string{},
		CreatedAt:           now,
	}
}

// Validate checks the shape of a state loaded from storage.
func (s *SessionState) Validate() error {
	if s == nil {
		return fmt.Errorf("session state is nil")
	}
	if s.UserID == "" {
		return fmt.Errorf("session state has empty user_id")
	}
	for i, m := range s.ConversationHistory {
		if m.Role != engine.RoleUser && m.Role != engine.RoleAssistant {
			return fmt.Errorf("conversation_history[%d]: invalid role %q", i, m.Role)
		}
	}
	if !s.CurrentPhase.Valid() {
		return fmt.Errorf("invalid current_phase %q", s.CurrentPhase)
	}
	if s.ParaphrasesCount < 0 || s.OpenQuestionsCount < 0 ||
		s.DeepeningQuestionsCount < 0 || s.CelebrationsCount < 0 {
		return fmt.Errorf("negative counter in session state for %s", s.UserID)
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.ConversationHistory = append([]engine.ChatMessage{}, s.ConversationHistory...)
	c.DetectedEmotions = cloneStrings(s.DetectedEmotions)
	c.KeyFacts = cloneStrings(s.KeyFacts)
	c.Topics = cloneStrings(s.Topics)
	c.KeyInsights = cloneStrings(s.KeyInsights)
	c.ActionSteps = cloneStrings(s.ActionSteps)
	return &c
}

// TurnCount is the number of completed user/assistant exchanges.
func (s *SessionState) TurnCount() int {
	return len(s.ConversationHistory) / 2
}

// RecentHistory returns a copy of the last n messages (all of them when n <= 0
// or the history is shorter).
func (s *SessionState) RecentHistory(n int) []engine.ChatMessage {
	h := s.ConversationHistory
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return append([]engine.ChatMessage{}, h...)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string{}, in...)
}
