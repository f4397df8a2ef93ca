// Package session persists coaching session state: one JSON document per user
// in memory, on disk or in a SQL database.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// ErrNotFound is returned by Delete when the user has no stored state.
var ErrNotFound = errors.New("session state not found")

// PersistenceError is a storage failure for one user.
type PersistenceError struct {
	Op     string // "load", "save", "delete", "exists", "list"
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("session %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session %s %s: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op, userID string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, UserID: userID, Err: err}
}

// IsNotFound reports whether err means the user has no stored state.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func encodeState(state *coaching.SessionState) ([]byte, error) {
	if state == nil {
		return nil, errors.New("nil session state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// decodeState parses and validates a stored document.
func decodeState(data []byte) (*coaching.SessionState, error) {
	var state coaching.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("stored state is invalid: %w", err)
	}
	return &state, nil
}

// stamp returns the copy of state that gets written: keyed by userID and
// carrying a fresh updated_at.
func stamp(userID string, state *coaching.SessionState) *coaching.SessionState {
	if state == nil {
		return nil
	}
	c := state.Clone()
	if c.UserID == "" {
		c.UserID = userID
	}
	c.UpdatedAt = time.Now().UTC()
	return c
}

func encodeForSave(userID string, state *coaching.SessionState) ([]byte, error) {
	if userID == "" {
		return nil, errors.New("empty user id")
	}
	s := stamp(userID, state)
	if s != nil && s.UserID != userID {
		return nil, fmt.Errorf("state belongs to %q", s.UserID)
	}
	return encodeState(s)
}
