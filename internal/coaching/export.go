package coaching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// Export is a read-only snapshot of a conversation plus its state.
// Conversation holds [user, assistant] pairs; a trailing unanswered user
// message is left out.
type Export struct {
	UserID       string        `json:"user_id"`
	ExportedAt   time.Time     `json:"exported_at"`
	Conversation [][2]string   `json:"conversation"`
	State        *SessionState `json:"state"`
}

// NewExport builds an Export of state taken at now.
func NewExport(state *SessionState, now time.Time) *Export {
	h := state.ConversationHistory
	pairs := make([][2]string, 0, len(h)/2)
	for i := 0; i+1 < len(h); i += 2 {
		pairs = append(pairs, [2]string{h[i].Content, h[i+1].Content})
	}
	return &Export{
		UserID:       state.UserID,
		ExportedAt:   now,
		Conversation: pairs,
		State:        state.Clone(),
	}
}

// History returns the full message history carried by the export. Exports
// without a state are rebuilt from the conversation pairs.
func (e *Export) History() []engine.ChatMessage {
	if e == nil {
		return nil
	}
	if e.State != nil {
		return e.State.RecentHistory(0)
	}
	h := make([]engine.ChatMessage, 0, 2*len(e.Conversation))
	for _, pair := range e.Conversation {
		h = append(h,
			engine.ChatMessage{Role: engine.RoleUser, Content: pair[0]},
			engine.ChatMessage{Role: engine.RoleAssistant, Content: pair[1]})
	}
	return h
}

// MarshalIndented renders the export the way it is written to disk.
func (e *Export) MarshalIndented() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// ParseExport decodes an export document.
func ParseExport(data []byte) (*Export, error) {
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return &e, nil
}

// Export snapshots the stored conversation for userID.
func (c *Coach) Export(ctx context.Context, userID string) (*Export, error) {
	state, err := c.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewExport(state, time.Now().UTC()), nil
}
