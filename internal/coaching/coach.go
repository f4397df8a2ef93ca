package coaching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// Store persists one SessionState per user. Implementations must hand out
// independent copies: mutating a loaded state never changes what is stored.
type Store interface {
	Exists(ctx context.Context, userID string) (bool, error)
	// Load returns (nil, nil) when the user has no state yet.
	Load(ctx context.Context, userID string) (*SessionState, error)
	Save(ctx context.Context, userID string, state *SessionState) error
	// Delete fails when the user has no state.
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]string, error)
}

// PromptRenderer turns prompt inputs into the system prompt text.
type PromptRenderer interface {
	Render(data PromptData) (string, error)
}

// ModelCaller performs one schema-validated model call and decodes the
// result into out.
type ModelCaller interface {
	Call(ctx context.Context, messages []engine.ChatMessage, schema engine.ResponseSchema, out any) error
}

// Observer receives turn outcomes, e.g. for metrics.
type Observer interface {
	TurnCompleted(outcome string)
	SelfCheckFlagged(flag string)
}

// Turn outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "model_error"
	OutcomeFailed   = "error"
)

// Options configures a Coach.
type Options struct {
	CoachName       string
	DefaultUserID   string
	DefaultLanguage string
	MaxHistory      int
}

// DefaultOptions mirrors the stock configuration.
func DefaultOptions() Options {
	return Options{
		CoachName:       "Coach Majkel Bagieta",
		DefaultUserID:   "default_user",
		DefaultLanguage: DefaultLanguage,
		MaxHistory:      10,
	}
}

// TurnStage names the step of a turn that failed.
type TurnStage string

const (
	StageLoad   TurnStage = "load"
	StagePrompt TurnStage = "prompt"
	StageModel  TurnStage = "model"
	StageSave   TurnStage = "save"
)

// TurnError reports a failed turn. Nothing was persisted.
type TurnError struct {
	Stage  TurnStage
	UserID string
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn for %s failed at %s: %v", e.UserID, e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// TurnResult is what a caller gets back from HandleTurn.
type TurnResult struct {
	TurnID  string
	Reply   string
	State   *SessionState
	Skipped bool
}

// Coach runs coaching turns: load, prompt, model, update, save.
type Coach struct {
	store    Store
	prompts  PromptRenderer
	caller   ModelCaller
	opts     Options
	logger   *zap.Logger
	observer Observer

	locks sync.Map // userID -> *sync.Mutex
}

// CoachOption customises a Coach.
type CoachOption func(*Coach)

// WithCoachLogger sets the logger.
func WithCoachLogger(l *zap.Logger) CoachOption {
	return func(c *Coach) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an Observer for turn outcomes.
func WithObserver(o Observer) CoachOption {
	return func(c *Coach) { c.observer = o }
}

// NewCoach wires a Coach from its collaborators.
func NewCoach(store Store, prompts PromptRenderer, caller ModelCaller, opts Options, options ...CoachOption) *Coach {
	defaults := DefaultOptions()
	if opts.DefaultUserID == "" {
		opts.DefaultUserID = defaults.DefaultUserID
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = defaults.DefaultLanguage
	}
	if opts.CoachName == "" {
		opts.CoachName = defaults.CoachName
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = defaults.MaxHistory
	}

	c := &Coach{
		store:   store,
		prompts: prompts,
		caller:  caller,
		opts:    opts,
		logger:  zap.NewNop(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// ResolveUserID maps a blank user id onto the configured default.
func (c *Coach) ResolveUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return c.opts.DefaultUserID
	}
	return userID
}

func (c *Coach) lock(userID string) func() {
	v, _ := c.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// HandleTurn processes one user message. A blank message is a no-op that
// returns the current state without touching storage. On any failure the
// stored state is left exactly as it was.
func (c *Coach) HandleTurn(ctx context.Context, userID, message string) (*TurnResult, error) {
	userID = c.ResolveUserID(userID)
	unlock := c.lock(userID)
	defer unlock()

	turnID := uuid.NewString()
	log := c.logger.With(zap.String("user_id", userID), zap.String("turn_id", turnID))

	state, err := c.loadOrCreate(ctx, userID)
	if err != nil {
		c.observe(OutcomeFailed)
		return nil, &TurnError{Stage: StageLoad, UserID: userID, Err: err}
	}

	if strings.TrimSpace(message) == "" {
		c.observe(OutcomeSkipped)
		return &TurnResult{TurnID: turnID, State: state, Skipped: true}, nil
	}

	state = AddUserMessage(state, message)
	history := state.RecentHistory(c.opts.MaxHistory)

	prompt, err := c.prompts.Render(BuildPromptData(c.opts.CoachName, state, history))
	if err != nil {
		c.observe(OutcomeFailed)
		return nil, &TurnError{Stage: StagePrompt, UserID: userID, Err: err}
	}

	messages := make([]engine.ChatMessage, 0, len(history)+1)
	messages = append(messages, engine.ChatMessage{Role: engine.RoleSystem, Content: prompt})
	messages = append(messages, history...)

	var resp CoachResponse
	if err := c.caller.Call(ctx, messages, CoachResponseSchema(), &resp); err != nil {
		if engine.IsResponseValidation(err) {
			c.observe(OutcomeRejected)
		} else {
			c.observe(OutcomeFailed)
		}
		log.Error("[Coach] model call failed", zap.Error(err))
		return nil, &TurnError{Stage: StageModel, UserID: userID, Err: err}
	}
	resp = resp.WithDefaults(c.opts.DefaultLanguage)

	log.Debug("[Coach] structured response",
		zap.String("phase", string(resp.CoachingPhase)),
		zap.String("question_type", string(resp.QuestionType)),
		zap.String("language", resp.ResponseLanguage),
		zap.String("analysis", truncateRunes(resp.AnalysisSummary, 80)))
	if resp.ContainsAdvice {
		log.Warn("[Coach] reply flagged as containing advice")
		c.flag("contains_advice")
	}
	if resp.ContainsJudgment {
		log.Warn("[Coach] reply flagged as containing judgment")
		c.flag("contains_judgment")
	}

	state = Apply(state, resp)

	if err := c.store.Save(ctx, userID, state); err != nil {
		c.observe(OutcomeFailed)
		return nil, &TurnError{Stage: StageSave, UserID: userID, Err: err}
	}

	c.observe(OutcomeOK)
	log.Info("[Coach] turn completed",
		zap.Int("turn", state.TurnCount()),
		zap.String("phase", string(state.CurrentPhase)))

	return &TurnResult{TurnID: turnID, Reply: resp.Reply(), State: state}, nil
}

// State returns the stored state for userID, or a fresh unsaved one.
func (c *Coach) State(ctx context.Context, userID string) (*SessionState, error) {
	return c.loadOrCreate(ctx, c.ResolveUserID(userID))
}

// Reset forgets everything about userID. Resetting an unknown user is not an
// error.
func (c *Coach) Reset(ctx context.Context, userID string) error {
	userID = c.ResolveUserID(userID)
	unlock := c.lock(userID)
	defer unlock()

	exists, err := c.store.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	if !exists {
		return nil
	}
	if err := c.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	c.logger.Info("[Coach] state cleared", zap.String("user_id", userID))
	return nil
}

// HasState reports whether userID has stored state.
func (c *Coach) HasState(ctx context.Context, userID string) (bool, error) {
	return c.store.Exists(ctx, c.ResolveUserID(userID))
}

// Users lists every user with stored state.
func (c *Coach) Users(ctx context.Context) ([]string, error) {
	return c.store.List(ctx)
}

func (c *Coach) loadOrCreate(ctx context.Context, userID string) (*SessionState, error) {
	state, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return NewSessionState(userID, c.opts.DefaultLanguage), nil
	}
	return state, nil
}

func (c *Coach) observe(outcome string) {
	if c.observer != nil {
		c.observer.TurnCompleted(outcome)
	}
}

func (c *Coach) flag(name string) {
	if c.observer != nil {
		c.observer.SelfCheckFlagged(name)
	}
}

// IsTurnStage reports whether err is a TurnError raised at stage.
func IsTurnStage(err error, stage TurnStage) bool {
	var te *TurnError
	return errors.As(err, &te) && te.Stage == stage
}
