package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/persona"
	"github.com/kitbuilder587/jarvis-bot/internal/repository"
)

type ProfileService interface {
	Get(ctx context.Context, chatID int64) (*domain.Profile, error)
	Preview(ctx context.Context, chatID int64) (string, error)
	SetField(ctx context.Context, chatID int64, field, value string) (*domain.Profile, error)
	AddChild(ctx context.Context, chatID int64, child domain.Person) (*domain.Profile, error)
	ClearChildren(ctx context.Context, chatID int64) (*domain.Profile, error)
	Reset(ctx context.Context, chatID int64) error
}

type profileService struct {
	repo   repository.ProfileRepository
	logger *zap.Logger
}

func NewProfileService(repo repository.ProfileRepository, logger *zap.Logger) ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &profileService{
		repo:   repo,
		logger: logger,
	}
}

func (s *profileService) Get(ctx context.Context, chatID int64) (*domain.Profile, error) {
	return s.repo.Get(ctx, chatID)
}

// Preview возвращает инструкцию, которую получит модель
func (s *profileService) Preview(ctx context.Context, chatID int64) (string, error) {
	p, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return "", err
	}
	return persona.Render(*p), nil
}

func (s *profileService) SetField(ctx context.Context, chatID int64, field, value string) (*domain.Profile, error) {
	return s.update(ctx, chatID, func(p *domain.Profile) error {
		return p.Set(field, value)
	})
}

func (s *profileService) AddChild(ctx context.Context, chatID int64, child domain.Person) (*domain.Profile, error) {
	return s.update(ctx, chatID, func(p *domain.Profile) error {
		return p.AddChild(child)
	})
}

func (s *profileService) ClearChildren(ctx context.Context, chatID int64) (*domain.Profile, error) {
	return s.update(ctx, chatID, func(p *domain.Profile) error {
		p.Children = nil
		return nil
	})
}

func (s *profileService) Reset(ctx context.Context, chatID int64) error {
	err := s.repo.Delete(ctx, chatID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	s.logger.Info("profile reset", zap.Int64("chat_id", chatID))
	return nil
}

func (s *profileService) update(ctx context.Context, chatID int64, fn func(*domain.Profile) error) (*domain.Profile, error) {
	p, err := s.repo.Get(ctx, chatID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		p = &domain.Profile{ChatID: chatID}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Debug("profile updated", zap.Int64("chat_id", chatID))
	return p, nil
}
