// Package config はアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Redis (キャッシュ)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache
	CacheTTL time.Duration

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration

	// GitHub
	GitHubToken      string
	GitHubAPIBaseURL string
	GitHubTimeout    time.Duration

	// News importer
	NewsFeedURLs       []string
	NewsImportInterval time.Duration
	NewsFetchTimeout   time.Duration
	NewsFetchMaxSize   int64

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitRepoReg int

	// Server
	ServerPort string

	// Keep-alive
	KeepAliveURL string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	// REDIS_ADDRが空の場合、キャッシュは無効化されDBへの直接読み取りに劣化する
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", time.Hour)
	cfg.TokenExpiry = getEnvDuration("TOKEN_EXPIRY", 7*24*time.Hour)
	cfg.GitHubToken = getEnvString("GITHUB_TOKEN", "")
	cfg.GitHubAPIBaseURL = getEnvString("GITHUB_API_BASE_URL", "https://api.github.com")
	cfg.GitHubTimeout = getEnvDuration("GITHUB_TIMEOUT", 10*time.Second)
	cfg.NewsFeedURLs = getEnvList("NEWS_FEED_URLS")
	cfg.NewsImportInterval = getEnvDuration("NEWS_IMPORT_INTERVAL", 30*time.Minute)
	cfg.NewsFetchTimeout = getEnvDuration("NEWS_FETCH_TIMEOUT", 10*time.Second)
	cfg.NewsFetchMaxSize = getEnvInt64("NEWS_FETCH_MAX_SIZE", 5242880)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRepoReg = getEnvInt("RATE_LIMIT_REPO_REG", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.KeepAliveURL = getEnvString("KEEP_ALIVE_URL", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を文字列スライスとして読み込む。
// 空要素は除外する。
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
