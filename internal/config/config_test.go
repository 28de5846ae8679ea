package config

import (
	"reflect"
	"testing"
	"time"
)

// clearEnv はテストプロセスに漏れた設定環境変数をすべて無効化する。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "JWT_SECRET",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"CACHE_TTL", "TOKEN_EXPIRY",
		"GITHUB_TOKEN", "GITHUB_API_BASE_URL", "GITHUB_TIMEOUT",
		"NEWS_FEED_URLS", "NEWS_IMPORT_INTERVAL", "NEWS_FETCH_TIMEOUT", "NEWS_FETCH_MAX_SIZE",
		"RATE_LIMIT_GENERAL", "RATE_LIMIT_REPO_REG",
		"SERVER_PORT", "KEEP_ALIVE_URL", "CORS_ALLOWED_ORIGIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRequiresMandatoryVariables(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("必須環境変数なしでLoad()が成功した")
	}

	// DATABASE_URLだけではまだ不足
	t.Setenv("DATABASE_URL", "postgres://localhost/zemon")
	if _, err := Load(); err == nil {
		t.Fatal("JWT_SECRETなしでLoad()が成功した")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/zemon")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.TokenExpiry != 7*24*time.Hour {
		t.Errorf("TokenExpiry = %v, want 168h", cfg.TokenExpiry)
	}
	if cfg.GitHubAPIBaseURL != "https://api.github.com" {
		t.Errorf("GitHubAPIBaseURL = %q", cfg.GitHubAPIBaseURL)
	}
	if cfg.NewsImportInterval != 30*time.Minute {
		t.Errorf("NewsImportInterval = %v, want 30m", cfg.NewsImportInterval)
	}
	if cfg.NewsFetchMaxSize != 5242880 {
		t.Errorf("NewsFetchMaxSize = %d, want 5242880", cfg.NewsFetchMaxSize)
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitRepoReg != 10 {
		t.Errorf("RateLimit = %d/%d, want 120/10", cfg.RateLimitGeneral, cfg.RateLimitRepoReg)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want \"\"", cfg.RedisAddr)
	}
	if cfg.NewsFeedURLs != nil {
		t.Errorf("NewsFeedURLs = %v, want nil", cfg.NewsFeedURLs)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/zemon")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, want 15m", cfg.CacheTTL)
	}
	if cfg.RateLimitGeneral != 60 {
		t.Errorf("RateLimitGeneral = %d, want 60", cfg.RateLimitGeneral)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
}

// 不正な数値・期間はデフォルト値にフォールバックする。
func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/zemon")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_GENERAL", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
}

func TestLoadFeedURLList(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/zemon")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("NEWS_FEED_URLS", " https://a.example/feed.xml , ,https://b.example/rss ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"https://a.example/feed.xml", "https://b.example/rss"}
	if !reflect.DeepEqual(cfg.NewsFeedURLs, want) {
		t.Errorf("NewsFeedURLs = %v, want %v", cfg.NewsFeedURLs, want)
	}
}
