package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/metrics"
	"github.com/Zemon-tech/ZEMON/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ドメインサービス
	AuthService      AuthServiceInterface
	RepoService      RepoServiceInterface
	EventService     EventServiceInterface
	NewsService      NewsServiceInterface
	StoreService     StoreServiceInterface
	CommunityService CommunityServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeaders → Logging → Recovery
//
// 公開ルートはOptionalAuthでトークンを解釈し、レート制限のキーに使う。
// 書き込み系ルートはAuthMiddlewareで認証を必須とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	repoHandler := NewRepoHandler(deps.RepoService)
	eventHandler := NewEventHandler(deps.EventService)
	newsHandler := NewNewsHandler(deps.NewsService)
	storeHandler := NewStoreHandler(deps.StoreService)
	communityHandler := NewCommunityHandler(deps.CommunityService)

	// ヘルスチェックとメトリクス（レート制限の対象外）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccessMessage(w, http.StatusOK, "ok")
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---
	// トークンがあればレート制限のキーに使うため、OptionalAuthを通す。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/auth/signup", authHandler.Signup)
		r.Post("/api/auth/login", authHandler.Login)
		r.Get("/api/users/{id}/profile", authHandler.PublicProfile)

		r.Get("/api/repos", repoHandler.List)
		r.Get("/api/repos/user/{userId}", repoHandler.ListByUser)
		r.Get("/api/repos/{id}", repoHandler.Get)

		r.Get("/api/events", eventHandler.List)
		r.Get("/api/events/upcoming", eventHandler.ListUpcoming)
		r.Get("/api/events/{id}", eventHandler.Get)

		r.Get("/api/news", newsHandler.List)
		r.Get("/api/news/{id}", newsHandler.Get)

		r.Get("/api/store", storeHandler.List)
		r.Get("/api/store/{id}", storeHandler.Get)

		r.Get("/api/ideas", communityHandler.ListIdeas)
		r.Get("/api/ideas/{id}", communityHandler.GetIdea)
		r.Get("/api/resources", communityHandler.ListResources)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/me", authHandler.Me)
		r.Put("/api/auth/profile", authHandler.UpdateProfile)

		// POST /api/repos - リポジトリ登録（登録専用レート制限を追加）
		r.With(deps.RateLimiter.RepoRegistrationMiddleware()).Post("/api/repos", repoHandler.Create)
		r.Put("/api/repos/{id}", repoHandler.Update)
		r.Delete("/api/repos/{id}", repoHandler.Delete)
		r.Post("/api/repos/{id}/sync", repoHandler.Sync)
		r.Post("/api/repos/{id}/like", repoHandler.ToggleLike)
		r.Post("/api/repos/{id}/comments", repoHandler.AddComment)

		r.Post("/api/events", eventHandler.Create)
		r.Put("/api/events/{id}", eventHandler.Update)
		r.Delete("/api/events/{id}", eventHandler.Delete)
		r.Post("/api/events/{id}/attend", eventHandler.ToggleAttend)

		r.Post("/api/news", newsHandler.Create)
		r.Put("/api/news/{id}", newsHandler.Update)
		r.Delete("/api/news/{id}", newsHandler.Delete)
		r.Post("/api/news/{id}/like", newsHandler.ToggleLike)
		r.Post("/api/news/{id}/comments", newsHandler.AddComment)

		r.Post("/api/store", storeHandler.Create)
		r.Get("/api/store/my-tools", storeHandler.ListUserTools)
		r.Put("/api/store/{id}", storeHandler.Update)
		r.Delete("/api/store/{id}", storeHandler.Delete)
		r.Post("/api/store/{id}/reviews", storeHandler.AddReview)

		r.Post("/api/ideas", communityHandler.CreateIdea)
		r.Put("/api/ideas/{id}", communityHandler.UpdateIdea)
		r.Delete("/api/ideas/{id}", communityHandler.DeleteIdea)
		r.Post("/api/ideas/{id}/comments", communityHandler.AddIdeaComment)

		r.Post("/api/resources", communityHandler.CreateResource)
		r.Delete("/api/resources/{id}", communityHandler.DeleteResource)
	})

	return r
}
