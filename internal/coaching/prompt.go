package coaching

import "github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"

// CoreIdentity describes who the coach is.
type CoreIdentity struct {
	CoachName string
}

// UserProfile is what the coach knows about the user.
type UserProfile struct {
	UserName string
	MainGoal string
}

// SessionSnapshot is the slice of SessionState the system prompt is built from.
type SessionSnapshot struct {
	Phase            Phase
	TurnCount        int
	DetectedEmotions []string
	CoachIntroduced  bool
	ContextGathered  bool
	DetectedLanguage string
	KeyFacts         []string
	Topics           []string
	KeyInsights      []string
	ActionSteps      []string
}

// PromptData is everything a PromptRenderer receives for one turn.
type PromptData struct {
	Core    CoreIdentity
	Profile UserProfile
	Session SessionSnapshot
	History []engine.ChatMessage
}

// BuildPromptData assembles prompt inputs from state and the given history
// window.
func BuildPromptData(coachName string, state *SessionState, history []engine.ChatMessage) PromptData {
	return PromptData{
		Core: CoreIdentity{CoachName: coachName},
		Profile: UserProfile{
			UserName: state.UserName,
			MainGoal: state.MainGoal,
		},
		Session: SessionSnapshot{
			Phase:            state.CurrentPhase,
			TurnCount:        state.TurnCount(),
			DetectedEmotions: cloneStrings(state.DetectedEmotions),
			CoachIntroduced:  state.CoachIntroduced,
			ContextGathered:  state.ContextGathered,
			DetectedLanguage: state.DetectedLanguage,
			KeyFacts:         cloneStrings(state.KeyFacts),
			Topics:           cloneStrings(state.Topics),
			KeyInsights:      cloneStrings(state.KeyInsights),
			ActionSteps:      cloneStrings(state.ActionSteps),
		},
		History: history,
	}
}
