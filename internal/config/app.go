package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hr-interview-bot/internal/admin"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type AppConfig struct {
	Telegram  TelegramConfig
	Oracle    OracleConfig
	Storage   StorageConfig
	Server    ServerConfig
	Interview InterviewConfig
	Admin     AdminConfig
	Company   CompanyConfig
}

type TelegramConfig struct {
	Token         string
	Mode          string
	WebhookURL    string
	WebhookSecret string
	PollTimeout   time.Duration
	// ResultsChat - числовой id чата или @канал для отчетов HR
	ResultsChat string
}

type StorageConfig struct {
	DatabaseURL string
	Driver      string
	RedisURL    string
	ResultsDir  string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type InterviewConfig struct {
	MaxFollowUps     int
	Timeout          time.Duration
	QuestionsFile    string
	RateLimitPerMin  int
	ExpiryScanPeriod time.Duration
}

type AdminConfig struct {
	IDs    *admin.Allowlist
	APIKey string
}

type CompanyConfig struct {
	Name           string
	Website        string
	CareersChannel string
	HRName         string
	HRPosition     string
}

// SetDefaults задает значения по умолчанию и читает переменные окружения
func SetDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"telegram_mode":              ModePolling,
		"telegram_poll_timeout":      30 * time.Second,
		"results_chat_id":            "",
		"oracle_provider":            ProviderOpenAI,
		"openai_model":               "gpt-4o",
		"openai_max_tokens":          4000,
		"openai_temperature":         0.3,
		"gemini_model":               "gemini-2.5-flash",
		"oracle_timeout":             60 * time.Second,
		"db_driver":                  "pgx",
		"results_dir":                "results",
		"http_port":                  8080,
		"server_read_timeout":        10 * time.Second,
		"server_write_timeout":       10 * time.Second,
		"server_shutdown_timeout":    30 * time.Second,
		"max_follow_up_questions":    2,
		"interview_timeout":          30 * time.Minute,
		"expiry_scan_interval":       time.Minute,
		"inbound_rate_limit_per_min": 10,
		"company_name":               "Маджента",
		"company_website":            "https://magenta.team",
		"careers_channel":            "@magentacareers",
		"hr_name":                    "Анна Петрова",
		"hr_position":                "Ведущий HR-специалист",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// ключи без значения по умолчанию тоже должны читаться из окружения
	for _, k := range []string{
		"telegram_bot_token", "telegram_webhook_url", "telegram_webhook_secret",
		"openai_api_key", "openai_base_url", "gemini_api_key",
		"database_url", "redis_url", "admin_ids", "admin_api_key", "questions_file",
	} {
		_ = v.BindEnv(k)
	}
}

// Load собирает конфигурацию приложения из viper
func Load(v *viper.Viper) (*AppConfig, error) {
	admins, err := admin.ParseAllowlist(v.GetString("admin_ids"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}

	cfg := &AppConfig{
		Telegram: TelegramConfig{
			Token:         strings.TrimSpace(v.GetString("telegram_bot_token")),
			Mode:          strings.ToLower(strings.TrimSpace(v.GetString("telegram_mode"))),
			WebhookURL:    v.GetString("telegram_webhook_url"),
			WebhookSecret: v.GetString("telegram_webhook_secret"),
			PollTimeout:   v.GetDuration("telegram_poll_timeout"),
			ResultsChat:   strings.TrimSpace(v.GetString("results_chat_id")),
		},
		Oracle: OracleConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("oracle_provider"))),
			OpenAIKey:   v.GetString("openai_api_key"),
			OpenAIModel: v.GetString("openai_model"),
			OpenAIURL:   v.GetString("openai_base_url"),
			MaxTokens:   v.GetInt("openai_max_tokens"),
			Temperature: v.GetFloat64("openai_temperature"),
			GeminiKey:   v.GetString("gemini_api_key"),
			GeminiModel: v.GetString("gemini_model"),
			Timeout:     v.GetDuration("oracle_timeout"),
		},
		Storage: StorageConfig{
			DatabaseURL: v.GetString("database_url"),
			Driver:      v.GetString("db_driver"),
			RedisURL:    v.GetString("redis_url"),
			ResultsDir:  v.GetString("results_dir"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("http_port"),
			ReadTimeout:     v.GetDuration("server_read_timeout"),
			WriteTimeout:    v.GetDuration("server_write_timeout"),
			ShutdownTimeout: v.GetDuration("server_shutdown_timeout"),
		},
		Interview: InterviewConfig{
			MaxFollowUps:     v.GetInt("max_follow_up_questions"),
			Timeout:          v.GetDuration("interview_timeout"),
			QuestionsFile:    v.GetString("questions_file"),
			RateLimitPerMin:  v.GetInt("inbound_rate_limit_per_min"),
			ExpiryScanPeriod: v.GetDuration("expiry_scan_interval"),
		},
		Admin: AdminConfig{
			IDs:    admins,
			APIKey: v.GetString("admin_api_key"),
		},
		Company: CompanyConfig{
			Name:           v.GetString("company_name"),
			Website:        v.GetString("company_website"),
			CareersChannel: v.GetString("careers_channel"),
			HRName:         v.GetString("hr_name"),
			HRPosition:     v.GetString("hr_position"),
		},
	}
	return cfg, nil
}

// Validate проверяет настройки, без которых бот не может работать
func (c *AppConfig) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("TELEGRAM_WEBHOOK_URL is required in webhook mode")
		}
		if c.Telegram.WebhookSecret == "" {
			return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET is required in webhook mode")
		}
	default:
		return fmt.Errorf("TELEGRAM_MODE must be %q or %q, got %q", ModePolling, ModeWebhook, c.Telegram.Mode)
	}
	if err := c.Oracle.Validate(); err != nil {
		return err
	}
	if c.Interview.MaxFollowUps < 0 {
		return fmt.Errorf("MAX_FOLLOW_UP_QUESTIONS must not be negative")
	}
	if c.Interview.Timeout <= 0 {
		return fmt.Errorf("INTERVIEW_TIMEOUT must be positive")
	}
	if c.Interview.ExpiryScanPeriod <= 0 {
		return fmt.Errorf("EXPIRY_SCAN_INTERVAL must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}
