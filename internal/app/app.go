// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zemon-tech/ZEMON/internal/auth"
	"github.com/Zemon-tech/ZEMON/internal/cache"
	"github.com/Zemon-tech/ZEMON/internal/community"
	"github.com/Zemon-tech/ZEMON/internal/config"
	"github.com/Zemon-tech/ZEMON/internal/database"
	"github.com/Zemon-tech/ZEMON/internal/event"
	"github.com/Zemon-tech/ZEMON/internal/github"
	"github.com/Zemon-tech/ZEMON/internal/handler"
	"github.com/Zemon-tech/ZEMON/internal/logger"
	"github.com/Zemon-tech/ZEMON/internal/metrics"
	"github.com/Zemon-tech/ZEMON/internal/middleware"
	"github.com/Zemon-tech/ZEMON/internal/news"
	"github.com/Zemon-tech/ZEMON/internal/repo"
	"github.com/Zemon-tech/ZEMON/internal/repository"
	"github.com/Zemon-tech/ZEMON/internal/security"
	"github.com/Zemon-tech/ZEMON/internal/store"
	"github.com/Zemon-tech/ZEMON/internal/worker/newsimport"
)

// keepAliveInterval はホスティング環境のスリープ防止ping間隔。
const keepAliveInterval = 14 * time.Minute

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// newCache はRedisキャッシュを生成する。REDIS_ADDRが未設定の場合は
// 何もしないキャッシュにフォールバックする（キャッシュなしでも動作する）。
func newCache(ctx context.Context, cfg *config.Config, collector metrics.MetricsCollector) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR is not set, caching is disabled")
		return cache.NewNoop(), func() {}
	}

	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, slog.Default(), collector)
	if err != nil {
		slog.Warn("failed to connect to redis, caching is disabled",
			slog.String("error", err.Error()),
		)
		return cache.NewNoop(), func() {}
	}

	slog.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			slog.Error("failed to close redis connection", slog.String("error", err.Error()))
		}
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスとキャッシュの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	c, closeCache := newCache(context.Background(), cfg, collector)
	defer closeCache()

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	repoRepo := repository.NewPostgresRepoRepo(db)
	eventRepo := repository.NewPostgresEventRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	storeRepo := repository.NewPostgresStoreRepo(db)
	ideaRepo := repository.NewPostgresIdeaRepo(db)
	resourceRepo := repository.NewPostgresResourceRepo(db)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 5. ドメインサービスの初期化
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenExpiry)
	authService := auth.NewService(userRepo, tokens)

	githubClient := github.NewClient(
		ssrfGuard.NewSafeClient(cfg.GitHubTimeout),
		slog.Default(), collector, cfg.GitHubAPIBaseURL, cfg.GitHubToken,
	)
	repoService := repo.NewService(
		repoRepo, githubClient, github.ValidateURL, github.CanonicalURL,
		sanitizer, c, cfg.CacheTTL,
	)

	eventService := event.NewService(eventRepo, c, cfg.CacheTTL)
	newsService := news.NewService(newsRepo, sanitizer, c, cfg.CacheTTL)
	storeService := store.NewService(storeRepo, userRepo, sanitizer, c, cfg.CacheTTL)
	communityService := community.NewService(
		ideaRepo, resourceRepo, userRepo, ssrfGuard, sanitizer, c, cfg.CacheTTL,
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRepoReg),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.SetupMetricsRoute(registry),
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService:      authService,
		RepoService:      repoService,
		EventService:     eventService,
		NewsService:      newsService,
		StoreService:     storeService,
		CommunityService: communityService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	keepAliveCtx, cancelKeepAlive := context.WithCancel(context.Background())
	defer cancelKeepAlive()

	// 無料ホスティングのスリープ防止ping
	if cfg.KeepAliveURL != "" {
		go keepAliveLoop(keepAliveCtx, cfg.KeepAliveURL)
	}

	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、ニュースインポータを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	if len(cfg.NewsFeedURLs) == 0 {
		return fmt.Errorf("NEWS_FEED_URLS is not set")
	}

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. メトリクスとキャッシュの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	c, closeCache := newCache(context.Background(), cfg, collector)
	defer closeCache()

	// 3. インポータの初期化
	newsRepo := repository.NewPostgresNewsRepo(db)
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	importer := newsimport.NewImporter(
		newsRepo, ssrfGuard, sanitizer, c, collector, slog.Default(),
		cfg.NewsFeedURLs, cfg.NewsFetchTimeout, cfg.NewsFetchMaxSize,
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("import_interval", cfg.NewsImportInterval),
		slog.Int("feed_count", len(cfg.NewsFeedURLs)),
	)

	// インポータをメインgoroutineで実行（ブロッキング）
	importer.Start(ctx, cfg.NewsImportInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// keepAliveLoop は一定間隔で自身のURLにpingを送り続ける。
// 無料ホスティング環境でのインスタンスのスリープを防止する。
func keepAliveLoop(ctx context.Context, url string) {
	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	slog.Info("keep-alive pinger started", slog.String("url", url))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				slog.Warn("keep-alive ping failed", slog.String("error", err.Error()))
				continue
			}
			resp.Body.Close()
		}
	}
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
