package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/config"
	"github.com/kitbuilder587/jarvis-bot/internal/repository"
	"github.com/kitbuilder587/jarvis-bot/internal/repository/postgres"
	"github.com/kitbuilder587/jarvis-bot/internal/repository/sqlite"
)

type store struct {
	conversations repository.ConversationRepository
	profiles      repository.ProfileRepository
	close         func()
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*store, error) {
	switch cfg.Type {
	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("using postgres store")
		return &store{
			conversations: postgres.NewConversationRepo(db),
			profiles:      postgres.NewProfileRepo(db),
			close:         db.Close,
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return &store{
			conversations: sqlite.NewConversationRepo(db),
			profiles:      sqlite.NewProfileRepo(db),
			close:         func() { db.Close() },
		}, nil

	default:
		logger.Warn("using in-memory store, history is lost on restart")
		return &store{
			conversations: repository.NewMemoryConversationRepository(),
			profiles:      repository.NewMemoryProfileRepository(),
			close:         func() {},
		}, nil
	}
}
