package llm

import (
	"context"
	"errors"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrOrgRestricted = errors.New("organization restricted")
	ErrBadRequest    = errors.New("bad request")
	ErrTimeout       = errors.New("request timed out")
)

// Provider - один вендор (groq, gemini). Ключ передается на каждый вызов,
// ротацией ключей занимается failover.
type Provider interface {
	Name() string
	Complete(ctx context.Context, apiKey string, req Request) (string, error)
}

type Request struct {
	Messages []domain.Message
	Params   GenerationParams
}

type GenerationParams struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
	TopK        int
	Stop        []string
}
