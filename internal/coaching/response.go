package coaching

import (
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// ResponseSchemaName identifies the per-turn coach contract.
const ResponseSchemaName = "coach_response"

// CoachResponse is the structured reply the model must produce every turn.
// Field order in the schema follows reason, classify, extract, self-check,
// answer.
type CoachResponse struct {
	AnalysisSummary    string       `json:"analysis_summary"`
	CoachingPhase      Phase        `json:"coaching_phase"`
	DetectedEmotions   []string     `json:"detected_emotions,omitempty"`
	QuestionType       QuestionType `json:"question_type"`
	ExtractedUserName  string       `json:"extracted_user_name,omitempty"`
	ExtractedGoal      string       `json:"extracted_goal,omitempty"`
	ResponseLanguage   string       `json:"response_language,omitempty"`
	ReferencedFacts    []string     `json:"referenced_facts,omitempty"`
	CurrentTopic       string       `json:"current_topic,omitempty"`
	InsightDetected    bool         `json:"insight_detected,omitempty"`
	CelebrationGiven   bool         `json:"celebration_given,omitempty"`
	ContainsAdvice     bool         `json:"contains_advice,omitempty"`
	ContainsJudgment   bool         `json:"contains_judgment,omitempty"`
	ProposedActionStep string       `json:"proposed_action_step,omitempty"`
	AIResponse         string       `json:"ai_response"`

	// Response is the reply field older model prompts used. Only read when
	// AIResponse is empty.
	Response string `json:"response,omitempty"`
}

// Reply returns the user-visible text, falling back to the legacy field.
func (r CoachResponse) Reply() string {
	if r.AIResponse != "" {
		return r.AIResponse
	}
	return r.Response
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// CoachResponseObject is the ordered object schema for CoachResponse.
func CoachResponseObject() engine.ObjectSchema {
	return engine.ObjectSchema{
		Title:       "CoachResponseAnalysis",
		Description: "Structured analysis of the coach's turn. Think first, then classify, extract, self-check and only then answer.",
		Properties: []engine.Property{
			{
				Name:        "analysis_summary",
				Type:        "string",
				Description: "Internal monologue. Analyse what the user said, what they feel and whether they are asking for a ready-made answer.",
				Required:    true,
			},
			{
				Name:        "coaching_phase",
				Type:        "string",
				Description: "Current phase of the coaching process based on the course of the conversation.",
				Enum:        enumStrings(Phases),
				Required:    true,
			},
			{
				Name:        "detected_emotions",
				Type:        "array",
				ItemsType:   "string",
				Description: "Emotions detected in the user's latest message.",
			},
			{
				Name:        "question_type",
				Type:        "string",
				Description: "Category of the intervention or question you are about to use.",
				Enum:        enumStrings(QuestionTypes),
				Required:    true,
			},
			{
				Name:        "extracted_user_name",
				Type:        "string",
				Nullable:    true,
				Description: "The user's name if they stated it. Null when not given.",
			},
			{
				Name:        "extracted_goal",
				Type:        "string",
				Nullable:    true,
				Description: "The goal or topic the user wants to work on. Null when not given.",
			},
			{
				Name:        "response_language",
				Type:        "string",
				Description: "Language of your reply. MUST match the user's language, e.g. 'pl' or 'en'.",
			},
			{
				Name:        "referenced_facts",
				Type:        "array",
				ItemsType:   "string",
				Description: "Facts from the user's own words that your reply refers back to.",
			},
			{
				Name:        "current_topic",
				Type:        "string",
				Nullable:    true,
				Description: "The thread of conversation currently being explored.",
			},
			{
				Name:        "insight_detected",
				Type:        "boolean",
				Description: "Did the user just have an insight or discovery?",
			},
			{
				Name:        "celebration_given",
				Type:        "boolean",
				Description: "Are you celebrating the user's insight in this reply?",
			},
			{
				Name:        "contains_advice",
				Type:        "boolean",
				Description: "SELF-CHECK: does your reply contain advice? MUST be false.",
			},
			{
				Name:        "contains_judgment",
				Type:        "boolean",
				Description: "SELF-CHECK: does your reply judge or moralise? MUST be false.",
			},
			{
				Name:        "proposed_action_step",
				Type:        "string",
				Nullable:    true,
				Description: "A concrete action step the user committed to, in their words.",
			},
			{
				Name:        "ai_response",
				Type:        "string",
				Description: "Final reply to the user. No advice, no judgment, in the user's language.",
				Required:    true,
			},
		},
	}
}

// CoachResponseSchema is the schema sent with every coaching turn.
func CoachResponseSchema() engine.ResponseSchema {
	return CoachResponseObject().Schema(ResponseSchemaName)
}
