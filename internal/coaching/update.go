package coaching

import (
	"strings"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// MaxInsightLength caps the analysis excerpt stored as a key insight.
const MaxInsightLength = 200

// WithDefaults fills the optional fields the model may omit.
func (r CoachResponse) WithDefaults(language string) CoachResponse {
	if r.ResponseLanguage == "" {
		if language == "" {
			language = DefaultLanguage
		}
		r.ResponseLanguage = language
	}
	return r
}

// AddUserMessage returns a copy of state with msg appended to the history.
func AddUserMessage(state *SessionState, msg string) *SessionState {
	next := cloneOrNew(state)
	next.ConversationHistory = append(next.ConversationHistory, engine.ChatMessage{
		Role:    engine.RoleUser,
		Content: msg,
	})
	return next
}

// SetSessionSummary returns a copy of state carrying summary.
func SetSessionSummary(state *SessionState, summary string) *SessionState {
	next := cloneOrNew(state)
	next.SessionSummary = summary
	return next
}

// Apply folds one structured model reply into a copy of state and returns it.
// The input state is never modified and Apply cannot fail.
func Apply(state *SessionState, resp CoachResponse) *SessionState {
	next := cloneOrNew(state)

	// The first reply always introduces the coach.
	if !next.CoachIntroduced {
		next.CoachIntroduced = true
	}

	if next.UserName == "" && resp.ExtractedUserName != "" {
		next.UserName = resp.ExtractedUserName
	}
	if next.MainGoal == "" && resp.ExtractedGoal != "" {
		next.MainGoal = resp.ExtractedGoal
	}
	next.ContextGathered = next.UserName != "" && next.MainGoal != ""

	if resp.ResponseLanguage != "" {
		next.DetectedLanguage = resp.ResponseLanguage
	}

	for _, fact := range resp.ReferencedFacts {
		next.KeyFacts = appendUnique(next.KeyFacts, fact)
	}
	next.Topics = appendUnique(next.Topics, resp.CurrentTopic)

	if resp.InsightDetected {
		next.KeyInsights = appendUnique(next.KeyInsights, truncateRunes(resp.AnalysisSummary, MaxInsightLength))
	}
	if resp.CelebrationGiven {
		next.CelebrationsCount++
	}

	next.ActionSteps = appendUnique(next.ActionSteps, resp.ProposedActionStep)
	next.ActionPlan = strings.Join(next.ActionSteps, "; ")

	if resp.CoachingPhase != "" {
		next.CurrentPhase = resp.CoachingPhase
	}

	for _, emotion := range resp.DetectedEmotions {
		next.DetectedEmotions = appendUnique(next.DetectedEmotions, emotion)
	}

	// A celebration question counts again here on top of celebration_given.
	switch resp.QuestionType {
	case QuestionOpen:
		next.OpenQuestionsCount++
	case QuestionParaphrase:
		next.ParaphrasesCount++
	case QuestionDeepening:
		next.DeepeningQuestionsCount++
	case QuestionCelebration:
		next.CelebrationsCount++
	}

	if reply := resp.Reply(); reply != "" {
		next.ConversationHistory = append(next.ConversationHistory, engine.ChatMessage{
			Role:    engine.RoleAssistant,
			Content: reply,
		})
	}

	return next
}

func cloneOrNew(state *SessionState) *SessionState {
	if state == nil {
		return NewSessionState("", DefaultLanguage)
	}
	return state.Clone()
}

// appendUnique appends v unless it is empty or already present.
func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
