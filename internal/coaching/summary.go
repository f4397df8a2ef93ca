package coaching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// SessionSummary is the structured recap the model writes on request.
type SessionSummary struct {
	KeyDiscoveries   []string `json:"key_discoveries"`
	EmotionsExplored []string `json:"emotions_explored"`
	TopicsCovered    []string `json:"topics_covered"`
	ActionSteps      []string `json:"action_steps"`
	SummaryText      string   `json:"summary_text"`
}

// SessionSummarySchema is the contract for SessionSummary.
func SessionSummarySchema() engine.ResponseSchema {
	return engine.ObjectSchema{
		Title:       "SessionSummary",
		Description: "Recap of a coaching session for the user.",
		Properties: []engine.Property{
			{Name: "key_discoveries", Type: "array", ItemsType: "string", Description: "What the user discovered about themselves.", Required: true},
			{Name: "emotions_explored", Type: "array", ItemsType: "string", Description: "Emotions that came up during the session.", Required: true},
			{Name: "topics_covered", Type: "array", ItemsType: "string", Description: "Threads the conversation went through.", Required: true},
			{Name: "action_steps", Type: "array", ItemsType: "string", Description: "Steps the user committed to, in their words.", Required: true},
			{Name: "summary_text", Type: "string", Description: "A short recap written to the user, in the user's language, without advice.", Required: true},
		},
	}.Schema("session_summary")
}

const summarySystemPrompt = `You are %s, a life coach. Summarize the coaching session below for the user.
Reply in the language with code %q. Do not give advice and do not judge.
Known facts: %s
Action steps agreed so far: %s`

// Summarize asks the model for a recap of the whole conversation and stores
// its text as the session summary.
func (c *Coach) Summarize(ctx context.Context, userID string) (*SessionSummary, *SessionState, error) {
	userID = c.ResolveUserID(userID)
	unlock := c.lock(userID)
	defer unlock()

	state, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("summarize %s: %w", userID, err)
	}
	if state == nil || len(state.ConversationHistory) == 0 {
		return nil, nil, fmt.Errorf("summarize %s: no conversation yet", userID)
	}

	system := fmt.Sprintf(summarySystemPrompt,
		c.opts.CoachName,
		state.DetectedLanguage,
		orNone(state.KeyFacts),
		orNone(state.ActionSteps))

	messages := make([]engine.ChatMessage, 0, len(state.ConversationHistory)+1)
	messages = append(messages, engine.ChatMessage{Role: engine.RoleSystem, Content: system})
	messages = append(messages, state.RecentHistory(0)...)

	var summary SessionSummary
	if err := c.caller.Call(ctx, messages, SessionSummarySchema(), &summary); err != nil {
		return nil, nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	next := SetSessionSummary(state, strings.TrimSpace(summary.SummaryText))
	if err := c.store.Save(ctx, userID, next); err != nil {
		return nil, nil, fmt.Errorf("summarize %s: %w", userID, err)
	}

	c.logger.Info("[Coach] session summary stored", zap.String("user_id", userID))
	return &summary, next, nil
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
