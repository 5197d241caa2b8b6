package config

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// OracleConfig описывает модель, оценивающую собеседования
type OracleConfig struct {
	Provider    string
	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string
	MaxTokens   int
	Temperature float64
	GeminiKey   string
	GeminiModel string
	Timeout     time.Duration
}

// Validate проверяет корректность конфигурации
func (c *OracleConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
		if c.MaxTokens <= 0 {
			return fmt.Errorf("OPENAI_MAX_TOKENS must be positive")
		}
		if c.Temperature < 0 || c.Temperature > 2 {
			return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("ORACLE_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	return nil
}

// Model возвращает имя модели выбранного провайдера
func (c *OracleConfig) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}
