package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/cache/memory"
	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/metrics"
)

// AccessService - опциональный пароль на бота. Пустой пароль = доступ открыт.
type AccessService interface {
	Enabled() bool
	IsUnlocked(chatID int64) bool
	Unlock(chatID int64, password string) error
	Lock(chatID int64)
	Stop()
}

type AccessConfig struct {
	Password string
	TTL      time.Duration
	// MaxAttempts неудачных попыток, после которых чат блокируется на Lockout
	MaxAttempts int
	Lockout     time.Duration
}

type accessService struct {
	hash     [sha256.Size]byte
	enabled  bool
	config   AccessConfig
	unlocked *memory.Cache[int64, time.Time]
	failures *memory.Cache[int64, int]
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewAccessService(cfg AccessConfig, logger *zap.Logger, m *metrics.Metrics) AccessService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &accessService{
		enabled:  cfg.Password != "",
		config:   cfg,
		unlocked: memory.New[int64, time.Time](),
		failures: memory.New[int64, int](),
		logger:   logger,
		metrics:  m,
	}
	if s.enabled {
		s.hash = sha256.Sum256([]byte(cfg.Password))
	}
	return s
}

func (s *accessService) Enabled() bool {
	return s.enabled
}

func (s *accessService) IsUnlocked(chatID int64) bool {
	if !s.enabled {
		return true
	}
	_, ok := s.unlocked.Get(chatID)
	return ok
}

func (s *accessService) Unlock(chatID int64, password string) error {
	if !s.enabled {
		return nil
	}

	if n, _ := s.failures.Get(chatID); n >= s.config.MaxAttempts {
		s.denied()
		return domain.ErrRateLimited
	}

	// сравниваем хеши, чтобы длина пароля не влияла на время
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(got[:], s.hash[:]) != 1 {
		n := s.failures.Update(chatID, s.config.Lockout, func(cur int, _ bool) int { return cur + 1 })
		s.denied()
		s.logger.Warn("wrong access password",
			zap.Int64("chat_id", chatID),
			zap.Int("failures", n),
		)
		return domain.ErrWrongPassword
	}

	s.failures.Delete(chatID)
	s.unlocked.Set(chatID, time.Now(), s.config.TTL)
	s.logger.Info("chat unlocked", zap.Int64("chat_id", chatID))
	return nil
}

func (s *accessService) Lock(chatID int64) {
	s.unlocked.Delete(chatID)
}

func (s *accessService) Stop() {
	s.unlocked.Stop()
	s.failures.Stop()
}

func (s *accessService) denied() {
	if s.metrics != nil {
		s.metrics.RecordAccessDenied()
	}
}
