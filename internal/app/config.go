package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	UserAgent       string
	ITunesEndpoint  string
	DeezerEndpoint  string
	RedisURL        string
	SearchLimit     int
	DedupeThreshold int
	ExactMatchBonus int
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	PageSize        int
	AdAfterTracks   int
	MaxAudioBytes   int64
}

func LoadConfig() Config {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8090"),
		RequestTimeout:  time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:       getEnv("SEARCH_USER_AGENT", "music-search/1.0"),
		ITunesEndpoint:  getEnv("SEARCH_PROVIDER_ITUNES_ENDPOINT", "https://itunes.apple.com/search"),
		DeezerEndpoint:  getEnv("SEARCH_PROVIDER_DEEZER_ENDPOINT", "https://api.deezer.com/search"),
		RedisURL:        getEnv("REDIS_URL", ""),
		SearchLimit:     getEnvInt("SEARCH_RESULT_LIMIT", 20),
		DedupeThreshold: getEnvInt("SEARCH_DEDUPE_THRESHOLD", 85),
		ExactMatchBonus: getEnvInt("SEARCH_EXACT_MATCH_BONUS", 20),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		CleanupInterval: time.Duration(getEnvInt("SESSION_CLEANUP_MINUTES", 10)) * time.Minute,
		PageSize:        getEnvInt("SESSION_PAGE_SIZE", 5),
		AdAfterTracks:   getEnvInt("AD_AFTER_TRACKS", 5),
		MaxAudioBytes:   int64(getEnvInt("MAX_AUDIO_MB", 50)) * 1024 * 1024,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
