package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nekoverse/nekobot/internal/llm"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Telegram  TelegramConfig
	Assistant AssistantConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	telegram, err := loadTelegramConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Telegram:  telegram,
		Assistant: loadAssistantConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the completion endpoint and its fixed generation
// parameters.
type AIConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Timeout          time.Duration
	Referer          string
	Title            string
}

// Enabled reports whether the completion credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// ClientConfig maps the loaded settings onto the llm client.
func (c AIConfig) ClientConfig() llm.Config {
	return llm.Config{
		APIKey:           c.APIKey,
		BaseURL:          c.BaseURL,
		Model:            c.Model,
		Temperature:      c.Temperature,
		MaxTokens:        c.MaxTokens,
		TopP:             c.TopP,
		FrequencyPenalty: c.FrequencyPenalty,
		PresencePenalty:  c.PresencePenalty,
		Timeout:          c.Timeout,
		Referer:          c.Referer,
		Title:            c.Title,
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseFloatEnv("LLM_TEMPERATURE", 0.8)
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseFloatEnv("LLM_TOP_P", 0.9)
	if err != nil {
		return AIConfig{}, err
	}

	frequencyPenalty, err := parseFloatEnv("LLM_FREQUENCY_PENALTY", 0.1)
	if err != nil {
		return AIConfig{}, err
	}

	presencePenalty, err := parseFloatEnv("LLM_PRESENCE_PENALTY", 0.1)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseIntEnv("LLM_MAX_TOKENS", 1000)
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds, err := parseIntEnv("LLM_TIMEOUT_SECONDS", 60)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:           strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		BaseURL:          getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		Model:            getEnvOrDefault("OPENROUTER_MODEL", "openai/gpt-5-chat"),
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
		Timeout:          time.Duration(timeoutSeconds) * time.Second,
		Referer:          getEnvOrDefault("OPENROUTER_REFERER", "https://github.com/nekoverse/nekobot"),
		Title:            getEnvOrDefault("OPENROUTER_TITLE", "NekoVerse AI Assistant"),
	}, nil
}

// TelegramConfig describes the long-polling bot transport.
type TelegramConfig struct {
	Token       string
	APIBase     string
	PollTimeout int
}

// Enabled reports whether a bot token is configured.
func (c TelegramConfig) Enabled() bool {
	return c.Token != ""
}

func loadTelegramConfig() (TelegramConfig, error) {
	pollTimeout, err := parseIntEnv("TELEGRAM_POLL_TIMEOUT", 30)
	if err != nil {
		return TelegramConfig{}, err
	}

	return TelegramConfig{
		Token:       strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		APIBase:     getEnvOrDefault("TELEGRAM_API_BASE", "https://api.telegram.org"),
		PollTimeout: pollTimeout,
	}, nil
}

// AssistantConfig carries the conversational defaults. Empty values fall
// back to the assistant package's built-ins.
type AssistantConfig struct {
	DefaultFolderName string
	SystemPrompt      string
}

func loadAssistantConfig() AssistantConfig {
	return AssistantConfig{
		DefaultFolderName: strings.TrimSpace(os.Getenv("ASSISTANT_DEFAULT_FOLDER")),
		SystemPrompt:      strings.TrimSpace(os.Getenv("ASSISTANT_SYSTEM_PROMPT")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
