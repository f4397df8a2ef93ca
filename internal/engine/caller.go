package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// CallHook observes every finished structured call.
type CallHook func(schema string, elapsed time.Duration, usage Usage, err error)

// Caller performs schema-validated model calls on top of an LLMClient.
// It is safe for concurrent use; at most maxConcurrency calls are in flight.
type Caller struct {
	client LLMClient
	model  string
	opts   ChatOptions
	policy RetryPolicy
	sem    *semaphore.Weighted
	logger *zap.Logger
	hooks  []CallHook
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithChatOptions sets temperature and token limits forwarded to the provider.
func WithChatOptions(opts ChatOptions) CallerOption {
	return func(c *Caller) { c.opts = opts }
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) CallerOption {
	return func(c *Caller) { c.policy = p }
}

// WithMaxConcurrency bounds concurrent provider calls.
func WithMaxConcurrency(n int) CallerOption {
	return func(c *Caller) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *zap.Logger) CallerOption {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHook registers an observer called after each Call.
func WithHook(h CallHook) CallerOption {
	return func(c *Caller) { c.hooks = append(c.hooks, h) }
}

// NewCaller builds a Caller for the given client and model name.
func NewCaller(client LLMClient, model string, opts ...CallerOption) *Caller {
	c := &Caller{
		client: client,
		model:  model,
		policy: DefaultRetryPolicy(),
		sem:    semaphore.NewWeighted(10),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *Caller) Model() string { return c.model }

// Call sends messages, validates the reply against schema and decodes it
// into out. Transport failures come back as *EngineError (possibly wrapped in
// *RetryExhaustedError); contract failures as *ResponseValidationError.
func (c *Caller) Call(ctx context.Context, messages []ChatMessage, schema ResponseSchema, out any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for model slot: %w", err)
	}
	defer c.sem.Release(1)

	c.logger.Debug("[Caller] sending model call",
		zap.String("schema", schema.Name),
		zap.Int("messages", len(messages)),
		zap.Int("estimated_tokens", EstimateMessageTokens(messages)))

	start := time.Now()
	resp, err := RetryWithPolicy(
		ctx,
		c.policy,
		func(ctx context.Context) (LLMResponse, error) {
			return c.client.Chat(ctx, c.model, messages, schema, c.opts)
		},
		ClassifyLLMError,
		func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("[Caller] retrying model call",
				zap.String("schema", schema.Name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	)
	if err == nil {
		err = decodeResponse(schema, resp.Content, out)
	}

	for _, h := range c.hooks {
		h(schema.Name, time.Since(start), resp.Usage, err)
	}
	return err
}

func decodeResponse(schema ResponseSchema, content string, out any) error {
	if _, err := ValidateResponse(schema, []byte(content)); err != nil {
		return err
	}
	if err := json.Unmarshal(StripCodeFence([]byte(content)), out); err != nil {
		return &ResponseValidationError{
			Schema: schema.Name,
			Errors: []string{err.Error()},
			Raw:    content,
		}
	}
	return nil
}
