package repository

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

// In-memory реализации для STORE_TYPE=memory и тестов.

type MemoryConversationRepository struct {
	mu       sync.RWMutex
	messages map[int64][]domain.Message

	// AppendErr, если задан, возвращается из Append
	AppendErr error
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		messages: make(map[int64][]domain.Message),
	}
}

func (m *MemoryConversationRepository) Append(ctx context.Context, chatID int64, msgs ...domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.messages[chatID] = append(m.messages[chatID], msgs...)
	return nil
}

func (m *MemoryConversationRepository) List(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.messages[chatID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]domain.Message, len(all))
	copy(out, all)
	return out, nil
}

func (m *MemoryConversationRepository) Clear(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.messages, chatID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryConversationRepository) Count(chatID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[chatID])
}

type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[int64]*domain.Profile
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		profiles: make(map[int64]*domain.Profile),
	}
}

func (m *MemoryProfileRepository) Get(ctx context.Context, chatID int64) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[chatID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := profile.Clone()
	cp.UpdatedAt = time.Now()
	profile.UpdatedAt = cp.UpdatedAt
	m.profiles[profile.ChatID] = cp
	return nil
}

func (m *MemoryProfileRepository) Delete(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[chatID]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(m.profiles, chatID)
	return nil
}

var (
	_ ConversationRepository = (*MemoryConversationRepository)(nil)
	_ ProfileRepository      = (*MemoryProfileRepository)(nil)
)
