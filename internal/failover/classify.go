package failover

import (
	"context"
	"errors"

	"github.com/kitbuilder587/jarvis-bot/internal/llm"
)

type Outcome int

const (
	Success Outcome = iota
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Classify decides whether a failed attempt should move on to the next key.
// Only failures tied to the key itself (quota, rate limit, restricted or
// rejected account, a stalled attempt) are retryable.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled):
		return Fatal
	case errors.Is(err, ErrAttemptTimeout),
		errors.Is(err, llm.ErrTimeout),
		errors.Is(err, llm.ErrRateLimit),
		errors.Is(err, llm.ErrOrgRestricted),
		errors.Is(err, llm.ErrAuthFailed):
		return Retryable
	default:
		return Fatal
	}
}

// attempt - результат одного запроса к провайдеру
type attempt struct {
	text    string
	outcome Outcome
	err     error
}
