package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/failover"
	"github.com/kitbuilder587/jarvis-bot/internal/llm"
	"github.com/kitbuilder587/jarvis-bot/internal/metrics"
	"github.com/kitbuilder587/jarvis-bot/internal/repository"
)

// Completer - то, что ChatService нужно от failover.Client
type Completer interface {
	CompleteWithStatus(ctx context.Context, conv []domain.Message, profile *domain.Profile, params *llm.GenerationParams) (string, failover.KeyStatus, error)
	Provider() string
	KeyCount() int
	LastStatus() failover.KeyStatus
}

type ChatReply struct {
	Text   string
	Status failover.KeyStatus
}

type KeyReport struct {
	Provider string
	Keys     int
	Last     failover.KeyStatus
}

type ChatService interface {
	Ask(ctx context.Context, chatID int64, text string) (*ChatReply, error)
	Clear(ctx context.Context, chatID int64) error
	KeyStatus() KeyReport
}

type ChatConfig struct {
	HistoryLimit   int
	Timeout        time.Duration
	RequireProfile bool
	// DefaultPersona используется для чатов без своего профиля
	DefaultPersona *domain.Profile
}

type ChatServiceDeps struct {
	Completer     Completer
	Conversations repository.ConversationRepository
	Profiles      repository.ProfileRepository
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Config        ChatConfig
}

type chatService struct {
	completer     Completer
	conversations repository.ConversationRepository
	profiles      repository.ProfileRepository
	logger        *zap.Logger
	metrics       *metrics.Metrics
	config        ChatConfig
}

func NewChatService(deps ChatServiceDeps) ChatService {
	if deps.Config.HistoryLimit == 0 {
		deps.Config.HistoryLimit = 20
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &chatService{
		completer:     deps.Completer,
		conversations: deps.Conversations,
		profiles:      deps.Profiles,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		config:        deps.Config,
	}
}

func (s *chatService) Ask(ctx context.Context, chatID int64, text string) (*ChatReply, error) {
	startTime := time.Now()

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	text, err := domain.ValidateUserText(text)
	if err != nil {
		s.record("validation_error", startTime)
		return nil, err
	}

	profile, err := s.profileFor(ctx, chatID)
	if err != nil {
		s.record("error", startTime)
		return nil, err
	}
	if profile == nil && s.config.RequireProfile {
		s.record("no_profile", startTime)
		return nil, domain.ErrProfileRequired
	}

	history, err := s.conversations.List(ctx, chatID, s.config.HistoryLimit)
	if err != nil {
		s.record("error", startTime)
		return nil, err
	}

	history = trimToUserTurn(history)
	conv := append(history, domain.UserMessage(text))

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	s.logger.Info("processing chat message",
		zap.Int64("chat_id", chatID),
		zap.Int("message_length", len(text)),
		zap.Int("history", len(history)),
		zap.Bool("persona", profile != nil),
	)

	answer, status, err := s.completer.CompleteWithStatus(ctx, conv, profile, nil)
	if err != nil {
		outcome := "error"
		if errors.Is(err, failover.ErrAllCredentialsExhausted) {
			outcome = "exhausted"
		}
		s.record(outcome, startTime)
		return nil, err
	}

	// сохраняем только удачный обмен, чтобы в истории не было вопросов без ответа
	if err := s.conversations.Append(ctx, chatID, domain.UserMessage(text), domain.AssistantMessage(answer)); err != nil {
		s.logger.Warn("failed to save conversation",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}

	s.record("success", startTime)
	s.logger.Info("chat message processed",
		zap.Int64("chat_id", chatID),
		zap.Int("key_index", status.CurrentIndex),
		zap.Ints("exhausted", status.ExhaustedIndices),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &ChatReply{Text: answer, Status: status}, nil
}

func (s *chatService) Clear(ctx context.Context, chatID int64) error {
	if err := s.conversations.Clear(ctx, chatID); err != nil {
		return err
	}
	s.logger.Info("conversation cleared", zap.Int64("chat_id", chatID))
	return nil
}

func (s *chatService) KeyStatus() KeyReport {
	return KeyReport{
		Provider: s.completer.Provider(),
		Keys:     s.completer.KeyCount(),
		Last:     s.completer.LastStatus(),
	}
}

func (s *chatService) profileFor(ctx context.Context, chatID int64) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, chatID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}
	if s.config.DefaultPersona != nil {
		return s.config.DefaultPersona.Clone(), nil
	}
	return nil, nil
}

// trimToUserTurn отрезает начало истории до первого сообщения пользователя.
// Лимит мог разрезать пару, а gemini не принимает диалог, начатый репликой модели.
func trimToUserTurn(history []domain.Message) []domain.Message {
	for len(history) > 0 && history[0].Role != domain.RoleUser {
		history = history[1:]
	}
	return history
}

func (s *chatService) record(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest("chat", status, time.Since(start))
	}
}
