package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	VintedBaseURL  string
	UserAgent      string
	BrowserSession bool
	ChromeBin      string

	LLMProvider   string // "openai" or "stub"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DefaultSearchText string
	DefaultMaxItems   int
	DefaultSearches   int
	DefaultSearchSite string

	MaxConcurrency    int
	RateLimitMs       int
	MaxRetries        int
	SourceTimeoutSec  int
	RequestTimeoutSec int

	OutputDir string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		VintedBaseURL: getEnv("VINTED_BASE_URL", "https://www.vinted.it"),
		UserAgent: getEnv("USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
				"(KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"),
		BrowserSession: getEnvBool("BROWSER_SESSION", false),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		DefaultSearchText: getEnv("DEFAULT_SEARCH_TEXT", "ssd"),
		DefaultMaxItems:   getEnvInt("DEFAULT_MAX_ITEMS", 5),
		DefaultSearches:   getEnvInt("DEFAULT_MAX_SEARCHES", 1),
		DefaultSearchSite: getEnv("DEFAULT_SEARCH_SITE", "amazon"),

		MaxConcurrency:    getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		SourceTimeoutSec:  getEnvInt("SOURCE_TIMEOUT_SEC", 30),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 90),

		OutputDir: getEnv("OUTPUT_DIR", "./output"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
