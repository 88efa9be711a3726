package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/jarvis-bot/internal/config"
	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/failover"
	"github.com/kitbuilder587/jarvis-bot/internal/llm"
	"github.com/kitbuilder587/jarvis-bot/internal/llm/gemini"
	"github.com/kitbuilder587/jarvis-bot/internal/llm/groq"
	"github.com/kitbuilder587/jarvis-bot/internal/metrics"
	"github.com/kitbuilder587/jarvis-bot/internal/persona"
	"github.com/kitbuilder587/jarvis-bot/internal/service"
	"github.com/kitbuilder587/jarvis-bot/internal/telegram"
)

type flags struct {
	envFiles []string
	logLevel string
	provider string
}

func main() {
	var f flags
	fs := pflag.NewFlagSet("jarvis", pflag.ExitOnError)
	fs.StringSliceVar(&f.envFiles, "env-file", nil, "env files to load (default .env if present)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.provider, "provider", "", "LLM provider: groq or gemini")
	fs.Parse(os.Args[1:])

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, "jarvis:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	// флаги важнее окружения и .env: godotenv не перетирает уже выставленные переменные
	if f.logLevel != "" {
		os.Setenv("LOG_LEVEL", f.logLevel)
	}
	if f.provider != "" {
		os.Setenv("LLM_PROVIDER", f.provider)
	}

	cfg, err := config.Load(f.envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.close()

	client, err := failover.New(newProvider(cfg.LLM, logger), failover.Config{
		Credentials:        cfg.LLM.Active().APIKeys,
		DefaultInstruction: cfg.Chat.DefaultInstruction,
		Params:             cfg.LLM.Active().Params,
		AttemptTimeout:     cfg.LLM.AttemptTimeout,
		Sticky:             cfg.LLM.StickyKeys,
	}, logger, m)
	if err != nil {
		return fmt.Errorf("create completion client: %w", err)
	}

	if budget := cfg.LLM.RotationBudget(); budget > cfg.Chat.Timeout {
		logger.Warn("chat timeout is shorter than a full key rotation, stalled keys may end in a timeout instead of exhaustion",
			zap.Duration("chat_timeout", cfg.Chat.Timeout),
			zap.Duration("rotation_budget", budget),
		)
	}

	var defaultPersona *domain.Profile
	if cfg.Chat.PersonaFile != "" {
		defaultPersona, err = persona.LoadFile(cfg.Chat.PersonaFile)
		if err != nil {
			return fmt.Errorf("load persona: %w", err)
		}
		logger.Info("default persona loaded", zap.String("file", cfg.Chat.PersonaFile))
	}

	access := service.NewAccessService(service.AccessConfig{
		Password: cfg.Access.Password,
		TTL:      cfg.Access.TTL,
	}, logger, m)
	defer access.Stop()

	svcs := telegram.Services{
		Chat: service.NewChatService(service.ChatServiceDeps{
			Completer:     client,
			Conversations: st.conversations,
			Profiles:      st.profiles,
			Logger:        logger,
			Metrics:       m,
			Config: service.ChatConfig{
				HistoryLimit:   cfg.Chat.HistoryLimit,
				Timeout:        cfg.Chat.Timeout,
				RequireProfile: cfg.Chat.RequireProfile,
				DefaultPersona: defaultPersona,
			},
		}),
		Profiles: service.NewProfileService(st.profiles, logger),
		Access:   access,
	}

	bot, err := telegram.New(ctx, telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		Debug:             cfg.Telegram.Debug,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, svcs, logger, m)
	if err != nil {
		return err
	}

	logger.Info("jarvis starting",
		zap.String("provider", client.Provider()),
		zap.Int("api_keys", client.KeyCount()),
		zap.String("store", cfg.Store.Type),
		zap.Bool("password", access.Enabled()),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := bot.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("jarvis stopped with error", zap.Error(err))
		return err
	}

	logger.Info("jarvis stopped")
	return nil
}

func newProvider(cfg config.LLMConfig, logger *zap.Logger) llm.Provider {
	active := cfg.Active()
	// http таймаут не длиннее попытки, 0 оставляет дефолт клиента
	if cfg.Provider == config.ProviderGemini {
		return gemini.New(gemini.Config{Model: active.Model, BaseURL: active.BaseURL, Timeout: cfg.AttemptTimeout}, logger)
	}
	return groq.New(groq.Config{Model: active.Model, BaseURL: active.BaseURL, Timeout: cfg.AttemptTimeout}, logger)
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}
