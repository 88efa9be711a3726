package repository

import (
	"context"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

// ConversationRepository - история чата. List отдает последние limit сообщений
// в хронологическом порядке, limit <= 0 - всю историю.
type ConversationRepository interface {
	Append(ctx context.Context, chatID int64, msgs ...domain.Message) error
	List(ctx context.Context, chatID int64, limit int) ([]domain.Message, error)
	Clear(ctx context.Context, chatID int64) error
}

// ProfileRepository хранит персону чата. Get возвращает domain.ErrProfileNotFound,
// если персона не задана.
type ProfileRepository interface {
	Get(ctx context.Context, chatID int64) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, chatID int64) error
}
