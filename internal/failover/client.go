// Package failover implements the completion client that walks an ordered
// list of API keys until one of them produces a reply.
package failover

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/llm"
	"github.com/kitbuilder587/jarvis-bot/internal/metrics"
	"github.com/kitbuilder587/jarvis-bot/internal/persona"
)

type Config struct {
	Credentials []string
	// DefaultInstruction is prepended when no persona is given. Empty disables it.
	DefaultInstruction string
	Params             llm.GenerationParams
	AttemptTimeout     time.Duration
	// Sticky starts each call from the key that last succeeded instead of key 0.
	Sticky bool
}

// KeyStatus describes which keys a single call went through.
type KeyStatus struct {
	CurrentIndex     int
	ExhaustedIndices []int
}

func (s KeyStatus) IsExhausted(idx int) bool {
	return slices.Contains(s.ExhaustedIndices, idx)
}

type Client struct {
	provider           llm.Provider
	keys               []string
	defaultInstruction string
	params             llm.GenerationParams
	attemptTimeout     time.Duration
	sticky             bool
	logger             *zap.Logger
	metrics            *metrics.Metrics

	lastGood atomic.Int64

	mu   sync.RWMutex
	last KeyStatus
}

func New(provider llm.Provider, cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Client, error) {
	keys := make([]string, 0, len(cfg.Credentials))
	for _, k := range cfg.Credentials {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		provider:           provider,
		keys:               keys,
		defaultInstruction: cfg.DefaultInstruction,
		params:             cfg.Params,
		attemptTimeout:     cfg.AttemptTimeout,
		sticky:             cfg.Sticky,
		logger:             logger,
		metrics:            m,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider.Name()
}

func (c *Client) KeyCount() int {
	return len(c.keys)
}

// LastStatus returns the key status of the most recently finished call.
func (c *Client) LastStatus() KeyStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return KeyStatus{
		CurrentIndex:     c.last.CurrentIndex,
		ExhaustedIndices: slices.Clone(c.last.ExhaustedIndices),
	}
}

// Complete returns the reply of the first key that succeeds. params == nil
// uses the configured defaults.
func (c *Client) Complete(ctx context.Context, conv []domain.Message, profile *domain.Profile, params *llm.GenerationParams) (string, error) {
	text, _, err := c.CompleteWithStatus(ctx, conv, profile, params)
	return text, err
}

func (c *Client) CompleteWithStatus(ctx context.Context, conv []domain.Message, profile *domain.Profile, params *llm.GenerationParams) (string, KeyStatus, error) {
	if len(c.keys) == 0 {
		return "", KeyStatus{}, ErrNoCredentials
	}
	if err := domain.ValidateConversation(conv); err != nil {
		return "", KeyStatus{}, fmt.Errorf("invalid conversation: %w", err)
	}

	messages := slices.Clone(conv)
	if instruction := persona.Instruction(profile, c.defaultInstruction); instruction != "" {
		messages = domain.WithSystem(conv, instruction)
	}

	req := llm.Request{Messages: messages, Params: c.params}
	if params != nil {
		req.Params = *params
	}

	requestID := uuid.NewString()
	provider := c.provider.Name()
	n := len(c.keys)

	start := 0
	if c.sticky {
		start = int(c.lastGood.Load()) % n
	}

	status := KeyStatus{CurrentIndex: start}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		status.CurrentIndex = idx

		res := c.attempt(ctx, idx, req, requestID)

		switch res.outcome {
		case Success:
			if c.sticky {
				c.lastGood.Store(int64(idx))
			}
			c.finish(status, "success", i+1)
			return res.text, status, nil

		case Retryable:
			status.ExhaustedIndices = append(status.ExhaustedIndices, idx)
			if i < n-1 {
				c.logger.Warn("api key unavailable, trying next key",
					zap.String("request_id", requestID),
					zap.String("provider", provider),
					zap.Int("key_index", idx),
					zap.Error(res.err),
				)
				if c.metrics != nil {
					c.metrics.RecordRotation(provider)
				}
				continue
			}

			c.logger.Error("all api keys exhausted",
				zap.String("request_id", requestID),
				zap.String("provider", provider),
				zap.Int("keys", n),
				zap.Error(res.err),
			)
			if c.metrics != nil {
				c.metrics.RecordExhausted(provider)
			}
			c.finish(status, "exhausted", i+1)
			return "", status, fmt.Errorf("%w (%d keys): %v", ErrAllCredentialsExhausted, n, res.err)

		default:
			c.logger.Error("completion failed",
				zap.String("request_id", requestID),
				zap.String("provider", provider),
				zap.Int("key_index", idx),
				zap.Error(res.err),
			)
			c.finish(status, "fatal", i+1)
			return "", status, res.err
		}
	}

	// недостижимо при n > 0
	return "", status, ErrNoCredentials
}

func (c *Client) attempt(ctx context.Context, idx int, req llm.Request, requestID string) attempt {
	if err := ctx.Err(); err != nil {
		return attempt{outcome: Fatal, err: fmt.Errorf("completion canceled: %w", err)}
	}

	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.attemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
	}
	defer cancel()

	provider := c.provider.Name()
	c.logger.Debug("llm attempt",
		zap.String("request_id", requestID),
		zap.String("provider", provider),
		zap.Int("key_index", idx),
		zap.String("key", llm.MaskKey(c.keys[idx])),
	)

	startTime := time.Now()
	text, err := c.provider.Complete(attemptCtx, c.keys[idx], req)
	duration := time.Since(startTime)

	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}

	var res attempt
	switch {
	case err == nil:
		res = attempt{text: text, outcome: Success}
	case ctx.Err() != nil:
		// вызывающий ушел, дальше ключи не трогаем
		res = attempt{outcome: Fatal, err: fmt.Errorf("completion canceled: %w", ctx.Err())}
	case attemptCtx.Err() != nil:
		err = fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, c.attemptTimeout, err)
		res = attempt{outcome: Retryable, err: err}
	default:
		res = attempt{outcome: Classify(err), err: err}
		if res.outcome == Fatal {
			res.err = &ProviderError{Provider: provider, KeyIndex: idx, Err: err}
		}
	}

	if c.metrics != nil {
		c.metrics.RecordLLMAttempt(provider, res.outcome.String(), duration)
	}
	if res.outcome == Success {
		c.logger.Info("llm response received",
			zap.String("request_id", requestID),
			zap.String("provider", provider),
			zap.Int("key_index", idx),
			zap.Duration("duration", duration),
		)
	}

	return res
}

func (c *Client) finish(status KeyStatus, result string, attempts int) {
	slices.Sort(status.ExhaustedIndices)

	c.mu.Lock()
	c.last = KeyStatus{
		CurrentIndex:     status.CurrentIndex,
		ExhaustedIndices: slices.Clone(status.ExhaustedIndices),
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordCompletion(c.provider.Name(), result, attempts)
	}
}
