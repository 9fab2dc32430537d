package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	MessagesAPIURL          string
	MessagesAPITimeout      time.Duration
	MessagesPageSize        int
	CorpusCacheTTL          time.Duration
	CorpusCacheStaleCeiling time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAIEmbedModel  string
	OpenAITemperature float32
	OpenAIMaxTokens   int

	QATopK            int
	QASemanticWeight  float64
	QALexicalFallback bool
	EmbedCacheTTL     time.Duration
	MaxContextChars   int

	LLMRetryMaxAttempts int
	LLMRetryBackoff     time.Duration

	APIRateLimitRPS   float64
	APIRateLimitBurst int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		MessagesAPIURL:          mustEnv("MESSAGES_API_URL", "http://localhost:8001/messages"),
		MessagesAPITimeout:      mustEnvSeconds("MESSAGES_API_TIMEOUT_SECONDS", 30),
		MessagesPageSize:        mustEnvInt("MESSAGES_PAGE_SIZE", 100),
		CorpusCacheTTL:          mustEnvSeconds("CORPUS_CACHE_TTL_SECONDS", 300),
		CorpusCacheStaleCeiling: mustEnvSeconds("CORPUS_CACHE_STALE_CEILING_SECONDS", 1800),

		OpenAIAPIKey:      mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     mustEnv("OPENAI_BASE_URL", ""),
		OpenAIChatModel:   mustEnv("OPENAI_CHAT_MODEL", "gpt-4-turbo"),
		OpenAIEmbedModel:  mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAITemperature: float32(mustEnvFloat("OPENAI_TEMPERATURE", 0.1)),
		OpenAIMaxTokens:   mustEnvInt("OPENAI_MAX_TOKENS", 200),

		QATopK:            mustEnvInt("QA_TOP_K", 5),
		QASemanticWeight:  mustEnvFloat("QA_SEMANTIC_WEIGHT", 0.7),
		QALexicalFallback: mustEnvBool("QA_LEXICAL_FALLBACK", false),
		EmbedCacheTTL:     mustEnvSeconds("EMBED_CACHE_TTL_SECONDS", 86400),
		MaxContextChars:   mustEnvInt("QA_MAX_CONTEXT_CHARS", 12000),

		LLMRetryMaxAttempts: mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 3),
		LLMRetryBackoff:     mustEnvMillis("LLM_RETRY_BACKOFF_MS", 500),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(mustEnvInt(key, fallback)) * time.Second
}

func mustEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(mustEnvInt(key, fallback)) * time.Millisecond
}
