package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kitbuilder587/jarvis-bot/internal/llm"
)

var (
	ErrMissingToken       = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingDB          = errors.New("DATABASE_URL is required for postgres store")
	ErrMissingSQLitePath  = errors.New("SQLITE_PATH is required for sqlite store")
	ErrInvalidProvider    = errors.New("LLM_PROVIDER must be groq or gemini")
	ErrInvalidStore       = errors.New("STORE_TYPE must be memory, postgres or sqlite")
	ErrMissingCredentials = errors.New("no API keys configured for the selected provider")
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Telegram  TelegramConfig
	Store     StoreConfig
	LLM       LLMConfig
	Chat      ChatConfig
	Access    AccessConfig
	Log       LogConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
}

type TelegramConfig struct {
	Token string
	Debug bool
}

type StoreConfig struct {
	Type        string
	DatabaseURL string
	SQLitePath  string
}

type LLMConfig struct {
	Provider       string
	Groq           ProviderConfig
	Gemini         ProviderConfig
	AttemptTimeout time.Duration
	StickyKeys     bool
}

type ProviderConfig struct {
	APIKeys []string
	Model   string
	BaseURL string
	Params  llm.GenerationParams
}

type ChatConfig struct {
	DefaultInstruction string
	PersonaFile        string
	RequireProfile     bool
	HistoryLimit       int
	Timeout            time.Duration
}

type AccessConfig struct {
	Password string
	TTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Addr string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

const defaultInstruction = "You are Jarvis, a concise and helpful personal assistant."

const (
	defaultChatTimeout = 120 * time.Second
	rotationSlack      = 10 * time.Second
)

// Load читает конфиг из окружения. envFiles подгружаются через godotenv
// и не перетирают уже выставленные переменные.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: getEnvBoolOrDefault("TELEGRAM_DEBUG", false),
		},
		Store: StoreConfig{
			Type:        strings.ToLower(getEnvOrDefault("STORE_TYPE", StoreMemory)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnvOrDefault("SQLITE_PATH", "jarvis.db"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGroq)),
			Groq: ProviderConfig{
				APIKeys: splitList(os.Getenv("GROQ_API_KEYS")),
				Model:   getEnvOrDefault("GROQ_MODEL", "llama3-8b-8192"),
				BaseURL: getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
				Params: llm.GenerationParams{
					Temperature: getEnvFloatOrDefault("GROQ_TEMPERATURE", 0.5),
					MaxTokens:   getEnvIntOrDefault("GROQ_MAX_TOKENS", 1024),
					TopP:        getEnvFloatOrDefault("GROQ_TOP_P", 1),
					Stop:        splitList(os.Getenv("GROQ_STOP")),
				},
			},
			Gemini: ProviderConfig{
				APIKeys: splitList(os.Getenv("GEMINI_API_KEYS")),
				Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
				BaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
				Params: llm.GenerationParams{
					Temperature: getEnvFloatOrDefault("GEMINI_TEMPERATURE", 0.7),
					MaxTokens:   getEnvIntOrDefault("GEMINI_MAX_TOKENS", 1000),
					TopP:        getEnvFloatOrDefault("GEMINI_TOP_P", 0.8),
					TopK:        getEnvIntOrDefault("GEMINI_TOP_K", 40),
					Stop:        splitList(os.Getenv("GEMINI_STOP")),
				},
			},
			AttemptTimeout: time.Duration(getEnvIntOrDefault("LLM_ATTEMPT_TIMEOUT_SEC", 30)) * time.Second,
			StickyKeys:     getEnvBoolOrDefault("LLM_STICKY_KEYS", false),
		},
		Chat: ChatConfig{
			DefaultInstruction: getEnvOrDefault("JARVIS_DEFAULT_INSTRUCTION", defaultInstruction),
			PersonaFile:        os.Getenv("PERSONA_FILE"),
			RequireProfile:     getEnvBoolOrDefault("REQUIRE_PROFILE", false),
			HistoryLimit:       getEnvIntOrDefault("HISTORY_LIMIT", 20),
			Timeout:            time.Duration(getEnvIntOrDefault("CHAT_TIMEOUT_SEC", 0)) * time.Second,
		},
		Access: AccessConfig{
			Password: os.Getenv("ACCESS_PASSWORD"),
			TTL:      time.Duration(getEnvIntOrDefault("ACCESS_TTL_HOURS", 24)) * time.Hour,
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", ""),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		},
	}

	// без CHAT_TIMEOUT_SEC ответ ждем столько, чтобы успеть обойти все ключи
	if cfg.Chat.Timeout <= 0 {
		cfg.Chat.Timeout = max(defaultChatTimeout, cfg.LLM.RotationBudget())
	}

	// JARVIS_DEFAULT_INSTRUCTION="-" выключает дефолтную инструкцию
	if cfg.Chat.DefaultInstruction == "-" {
		cfg.Chat.DefaultInstruction = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}

	switch c.Store.Type {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return ErrMissingDB
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	default:
		return ErrInvalidStore
	}

	switch c.LLM.Provider {
	case ProviderGroq, ProviderGemini:
	default:
		return ErrInvalidProvider
	}
	if len(c.LLM.Active().APIKeys) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, c.LLM.Provider)
	}

	return nil
}

// Active returns the settings of the selected provider.
func (c LLMConfig) Active() ProviderConfig {
	if c.Provider == ProviderGemini {
		return c.Gemini
	}
	return c.Groq
}

// RotationBudget is how long one call may take when every key stalls until
// its attempt timeout. Zero when attempts are not bounded.
func (c LLMConfig) RotationBudget() time.Duration {
	if c.AttemptTimeout <= 0 {
		return 0
	}
	return time.Duration(len(c.Active().APIKeys))*c.AttemptTimeout + rotationSlack
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		// .env необязателен
		_ = godotenv.Load()
		return nil
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
