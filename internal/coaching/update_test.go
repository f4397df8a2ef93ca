package coaching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

func baseResponse(reply string) CoachResponse {
	return CoachResponse{
		AnalysisSummary: "user is thinking out loud",
		CoachingPhase:   PhaseExploration,
		QuestionType:    QuestionNone,
		AIResponse:      reply,
	}
}

func TestApplyFirstTurnProfile(t *testing.T) {
	state := NewSessionState("u1", "")

	next := Apply(state, CoachResponse{
		ExtractedUserName: "Maria",
		ExtractedGoal:     "find a job",
		ResponseLanguage:  "en",
		QuestionType:      QuestionOpen,
		AIResponse:        "Hi Maria!",
	})

	assert.Equal(t, "Maria", next.UserName)
	assert.Equal(t, "find a job", next.MainGoal)
	assert.True(t, next.ContextGathered)
	assert.True(t, next.CoachIntroduced)
	assert.Equal(t, "en", next.DetectedLanguage)
	assert.Equal(t, 1, next.OpenQuestionsCount)
	assert.Equal(t, []engine.ChatMessage{{Role: engine.RoleAssistant, Content: "Hi Maria!"}}, next.ConversationHistory)

	// input untouched
	assert.Empty(t, state.UserName)
	assert.False(t, state.CoachIntroduced)
	assert.Empty(t, state.ConversationHistory)
}

func TestApplyFirstWriteWins(t *testing.T) {
	state := NewSessionState("u1", "")
	state.UserName = "Alice"

	next := Apply(state, CoachResponse{ExtractedUserName: "Bob", ExtractedGoal: "run a marathon", AIResponse: "ok"})
	assert.Equal(t, "Alice", next.UserName)
	assert.Equal(t, "run a marathon", next.MainGoal)
	assert.True(t, next.ContextGathered)

	next = Apply(next, CoachResponse{ExtractedGoal: "learn piano", AIResponse: "ok"})
	assert.Equal(t, "run a marathon", next.MainGoal)
}

func TestApplyContextGatheredNeedsBothFields(t *testing.T) {
	state := NewSessionState("u1", "")
	next := Apply(state, CoachResponse{ExtractedUserName: "Ola", AIResponse: "Hi"})
	assert.False(t, next.ContextGathered)

	next = Apply(next, CoachResponse{ExtractedGoal: "sleep better", AIResponse: "Great"})
	assert.True(t, next.ContextGathered)
}

func TestApplyLanguageLastWriteWins(t *testing.T) {
	state := NewSessionState("u1", "")
	assert.Equal(t, "pl", state.DetectedLanguage)

	state = Apply(state, CoachResponse{ResponseLanguage: "pl", AIResponse: "Cześć"})
	state = Apply(state, CoachResponse{ResponseLanguage: "en", AIResponse: "Hello"})
	assert.Equal(t, "en", state.DetectedLanguage)

	state = Apply(state, CoachResponse{AIResponse: "Still here"})
	assert.Equal(t, "en", state.DetectedLanguage, "empty language keeps the previous value")
}

func TestApplyIntroductionIsMonotonic(t *testing.T) {
	state := NewSessionState("u1", "")
	for i := 0; i < 3; i++ {
		state = Apply(state, baseResponse("reply"))
		assert.True(t, state.CoachIntroduced)
	}
}

func TestApplyDedupIsIdempotent(t *testing.T) {
	resp := baseResponse("reply")
	resp.ReferencedFacts = []string{"X", "", "X"}
	resp.CurrentTopic = "career"
	resp.DetectedEmotions = []string{"fear", "", "hope"}

	state := Apply(NewSessionState("u1", ""), resp)
	state = Apply(state, resp)

	assert.Equal(t, []string{"X"}, state.KeyFacts)
	assert.Equal(t, []string{"career"}, state.Topics)
	assert.Equal(t, []string{"fear", "hope"}, state.DetectedEmotions)
}

func TestApplyActionStepsDedup(t *testing.T) {
	resp := baseResponse("reply")
	resp.ProposedActionStep = "update my CV by Friday"

	state := Apply(NewSessionState("u1", ""), resp)
	state = Apply(state, resp)
	require.Equal(t, []string{"update my CV by Friday"}, state.ActionSteps)
	assert.Equal(t, "update my CV by Friday", state.ActionPlan)

	resp.ProposedActionStep = "call Anna"
	state = Apply(state, resp)
	assert.Equal(t, "update my CV by Friday; call Anna", state.ActionPlan)
}

func TestApplyInsights(t *testing.T) {
	long := strings.Repeat("ą", 250)
	resp := baseResponse("reply")
	resp.InsightDetected = true
	resp.AnalysisSummary = long

	state := Apply(NewSessionState("u1", ""), resp)
	state = Apply(state, resp)

	require.Len(t, state.KeyInsights, 1)
	assert.Equal(t, MaxInsightLength, len([]rune(state.KeyInsights[0])))
	assert.Equal(t, 0, state.CelebrationsCount)
}

func TestApplyCelebrationCountsTwice(t *testing.T) {
	resp := baseResponse("Brawo!")
	resp.CelebrationGiven = true
	resp.QuestionType = QuestionCelebration

	state := Apply(NewSessionState("u1", ""), resp)
	assert.Equal(t, 2, state.CelebrationsCount)
}

func TestApplyCounters(t *testing.T) {
	state := NewSessionState("u1", "")
	for _, qt := range []QuestionType{QuestionOpen, QuestionParaphrase, QuestionDeepening, QuestionDeepening, QuestionClosed, QuestionSummary, QuestionNone} {
		resp := baseResponse("r")
		resp.QuestionType = qt
		prev := state
		state = Apply(state, resp)

		assert.GreaterOrEqual(t, state.OpenQuestionsCount, prev.OpenQuestionsCount)
		assert.GreaterOrEqual(t, state.ParaphrasesCount, prev.ParaphrasesCount)
		assert.GreaterOrEqual(t, state.DeepeningQuestionsCount, prev.DeepeningQuestionsCount)
		assert.GreaterOrEqual(t, state.CelebrationsCount, prev.CelebrationsCount)
	}

	assert.Equal(t, 1, state.OpenQuestionsCount)
	assert.Equal(t, 1, state.ParaphrasesCount)
	assert.Equal(t, 2, state.DeepeningQuestionsCount)
	assert.Equal(t, 0, state.CelebrationsCount)
}

func TestApplyPhase(t *testing.T) {
	resp := baseResponse("r")
	resp.CoachingPhase = PhaseActionPlanning
	state := Apply(NewSessionState("u1", ""), resp)
	assert.Equal(t, PhaseActionPlanning, state.CurrentPhase)

	resp.CoachingPhase = ""
	state = Apply(state, resp)
	assert.Equal(t, PhaseActionPlanning, state.CurrentPhase)
}

func TestApplyReplyFallback(t *testing.T) {
	state := Apply(NewSessionState("u1", ""), CoachResponse{Response: "legacy reply"})
	require.Len(t, state.ConversationHistory, 1)
	assert.Equal(t, "legacy reply", state.ConversationHistory[0].Content)

	state = Apply(state, CoachResponse{})
	assert.Len(t, state.ConversationHistory, 1, "nothing to append when both reply fields are empty")
}

func TestHistoryPairing(t *testing.T) {
	state := NewSessionState("u1", "")
	for i := 0; i < 4; i++ {
		state = AddUserMessage(state, "message")
		state = Apply(state, baseResponse("answer"))
	}

	require.Len(t, state.ConversationHistory, 8)
	for i, m := range state.ConversationHistory {
		if i%2 == 0 {
			assert.Equal(t, engine.RoleUser, m.Role)
		} else {
			assert.Equal(t, engine.RoleAssistant, m.Role)
		}
	}
	assert.Equal(t, 4, state.TurnCount())
}

func TestAddUserMessageDoesNotDedup(t *testing.T) {
	state := AddUserMessage(NewSessionState("u1", ""), "same")
	state = AddUserMessage(state, "same")
	assert.Len(t, state.ConversationHistory, 2)
}

func TestApplyNilState(t *testing.T) {
	state := Apply(nil, baseResponse("hello"))
	require.NotNil(t, state)
	assert.True(t, state.CoachIntroduced)
}

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, "pl", CoachResponse{}.WithDefaults("").ResponseLanguage)
	assert.Equal(t, "en", CoachResponse{}.WithDefaults("en").ResponseLanguage)
	assert.Equal(t, "de", CoachResponse{ResponseLanguage: "de"}.WithDefaults("en").ResponseLanguage)
}

func TestSetSessionSummary(t *testing.T) {
	state := NewSessionState("u1", "")
	next := SetSessionSummary(state, "talked about work")
	assert.Equal(t, "talked about work", next.SessionSummary)
	assert.Empty(t, state.SessionSummary)
}
