package failover

import (
	"errors"
	"fmt"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

var (
	ErrNoCredentials           = errors.New("no credentials configured")
	ErrAllCredentialsExhausted = errors.New("all credentials exhausted")
	ErrAttemptTimeout          = errors.New("attempt timed out")
	ErrEmptyConversation       = domain.ErrEmptyConversation
)

// ProviderError - неретраибельная ошибка одного ключа. Остальные ключи после нее не пробуем.
type ProviderError struct {
	Provider string
	KeyIndex int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (key %d): %v", e.Provider, e.KeyIndex+1, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
