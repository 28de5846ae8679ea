package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zemon-tech/ZEMON/internal/auth"
	"github.com/Zemon-tech/ZEMON/internal/community"
	"github.com/Zemon-tech/ZEMON/internal/event"
	"github.com/Zemon-tech/ZEMON/internal/middleware"
	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/news"
	"github.com/Zemon-tech/ZEMON/internal/repo"
	"github.com/Zemon-tech/ZEMON/internal/store"
)

// stubVerifier は固定トークン "valid-token" のみを受け付けるTokenVerifier。
type stubVerifier struct{}

func (stubVerifier) Verify(tokenString string) (*auth.Claims, error) {
	if tokenString != "valid-token" {
		return nil, errors.New("token is invalid")
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}, nil
}

// stubCollector は何も記録しないMetricsCollector。
type stubCollector struct{}

func (stubCollector) RecordHTTPStatus(_ int)               {}
func (stubCollector) RecordRequestLatency(_ time.Duration) {}
func (stubCollector) RecordCacheHit(_ string)              {}
func (stubCollector) RecordCacheMiss(_ string)             {}
func (stubCollector) RecordGitHubFetchSuccess()            {}
func (stubCollector) RecordGitHubFetchFailure(_ string)    {}
func (stubCollector) RecordNewsImported(_ int)             {}

// 以下のスタブサービスはルーティング検証用で、常に空の結果を返す。

type stubAuthService struct{}

func (stubAuthService) Signup(_ context.Context, _ auth.SignupInput) (*model.User, string, error) {
	return &model.User{}, "token", nil
}
func (stubAuthService) Login(_ context.Context, _, _ string) (*model.User, string, error) {
	return &model.User{}, "token", nil
}
func (stubAuthService) GetCurrentUser(_ context.Context, _ string) (*model.User, error) {
	return &model.User{}, nil
}
func (stubAuthService) UpdateProfile(_ context.Context, _ string, _ auth.ProfileUpdateInput) (*model.User, error) {
	return &model.User{}, nil
}
func (stubAuthService) GetPublicProfile(_ context.Context, _ string) (map[string]any, error) {
	return map[string]any{}, nil
}

type stubRepoService struct{}

func (stubRepoService) List(_ context.Context, _, _ int) (*model.RepoList, error) {
	return &model.RepoList{}, nil
}
func (stubRepoService) Get(_ context.Context, _ string) (*model.Repo, error) {
	return &model.Repo{}, nil
}
func (stubRepoService) ListByUser(_ context.Context, _ string) ([]*model.Repo, error) {
	return nil, nil
}
func (stubRepoService) Create(_ context.Context, _, _, _ string, _ []string) (*model.Repo, error) {
	return &model.Repo{}, nil
}
func (stubRepoService) Update(_ context.Context, _, _ string, _ repo.UpdateInput) (*model.Repo, error) {
	return &model.Repo{}, nil
}
func (stubRepoService) Delete(_ context.Context, _, _ string) error { return nil }
func (stubRepoService) Sync(_ context.Context, _ string) (*model.Repo, error) {
	return &model.Repo{}, nil
}
func (stubRepoService) ToggleLike(_ context.Context, _, _ string) (*model.Repo, error) {
	return &model.Repo{}, nil
}
func (stubRepoService) AddComment(_ context.Context, _, _, _ string) (*model.Repo, error) {
	return &model.Repo{}, nil
}

type stubEventService struct{}

func (stubEventService) List(_ context.Context, _, _ int, _ string, _ model.EventStatus) (*event.EventListWithStatus, error) {
	return &event.EventListWithStatus{}, nil
}
func (stubEventService) Get(_ context.Context, _ string) (*event.EventWithStatus, error) {
	return &event.EventWithStatus{}, nil
}
func (stubEventService) ListUpcoming(_ context.Context) ([]*event.EventWithStatus, error) {
	return nil, nil
}
func (stubEventService) Create(_ context.Context, _ string, _ event.CreateInput) (*model.Event, error) {
	return &model.Event{}, nil
}
func (stubEventService) Update(_ context.Context, _, _ string, _ event.UpdateInput) (*model.Event, error) {
	return &model.Event{}, nil
}
func (stubEventService) Delete(_ context.Context, _, _ string) error { return nil }
func (stubEventService) ToggleAttend(_ context.Context, _, _ string) (*model.Event, error) {
	return &model.Event{}, nil
}

type stubNewsService struct{}

func (stubNewsService) List(_ context.Context, _, _ int, _ string) (*model.NewsList, error) {
	return &model.NewsList{}, nil
}
func (stubNewsService) Get(_ context.Context, _ string) (*model.News, error) {
	return &model.News{}, nil
}
func (stubNewsService) Create(_ context.Context, _ string, _ news.CreateInput) (*model.News, error) {
	return &model.News{}, nil
}
func (stubNewsService) Update(_ context.Context, _, _ string, _ news.UpdateInput) (*model.News, error) {
	return &model.News{}, nil
}
func (stubNewsService) Delete(_ context.Context, _, _ string) error { return nil }
func (stubNewsService) ToggleLike(_ context.Context, _, _ string) (*model.News, error) {
	return &model.News{}, nil
}
func (stubNewsService) AddComment(_ context.Context, _, _, _ string) (*model.News, error) {
	return &model.News{}, nil
}

type stubStoreService struct{}

func (stubStoreService) List(_ context.Context, _, _ int, _, _ string) (*model.StoreItemList, error) {
	return &model.StoreItemList{}, nil
}
func (stubStoreService) Get(_ context.Context, _ string) (*model.StoreItem, error) {
	return &model.StoreItem{}, nil
}
func (stubStoreService) ListUserTools(_ context.Context, _ string) ([]*model.StoreItem, error) {
	return nil, nil
}
func (stubStoreService) Create(_ context.Context, _ string, _ store.CreateInput) (*model.StoreItem, error) {
	return &model.StoreItem{}, nil
}
func (stubStoreService) Update(_ context.Context, _, _ string, _ store.UpdateInput) (*model.StoreItem, error) {
	return &model.StoreItem{}, nil
}
func (stubStoreService) Delete(_ context.Context, _, _ string) error { return nil }
func (stubStoreService) AddReview(_ context.Context, _, _ string, _ store.ReviewInput) (*model.StoreItem, error) {
	return &model.StoreItem{}, nil
}

type stubCommunityService struct{}

func (stubCommunityService) ListIdeas(_ context.Context, _, _ int) (*model.IdeaList, error) {
	return &model.IdeaList{}, nil
}
func (stubCommunityService) GetIdea(_ context.Context, _ string) (*model.Idea, error) {
	return &model.Idea{}, nil
}
func (stubCommunityService) CreateIdea(_ context.Context, _ string, _ community.IdeaInput) (*model.Idea, error) {
	return &model.Idea{}, nil
}
func (stubCommunityService) UpdateIdea(_ context.Context, _, _ string, _ community.IdeaInput) (*model.Idea, error) {
	return &model.Idea{}, nil
}
func (stubCommunityService) DeleteIdea(_ context.Context, _, _ string) error { return nil }
func (stubCommunityService) AddIdeaComment(_ context.Context, _, _, _ string) (*model.Idea, error) {
	return &model.Idea{}, nil
}
func (stubCommunityService) ListResources(_ context.Context) ([]*model.CommunityResource, error) {
	return nil, nil
}
func (stubCommunityService) CreateResource(_ context.Context, _ string, _ community.ResourceInput) (*model.CommunityResource, error) {
	return &model.CommunityResource{}, nil
}
func (stubCommunityService) DeleteResource(_ context.Context, _, _ string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(6000, 6000))
	t.Cleanup(limiter.Stop)

	return NewRouter(&RouterDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: stubCollector{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		TokenVerifier:     stubVerifier{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		AuthService:       stubAuthService{},
		RepoService:       stubRepoService{},
		EventService:      stubEventService{},
		NewsService:       stubNewsService{},
		StoreService:      stubStoreService{},
		CommunityService:  stubCommunityService{},
	})
}

// ルーティング全体の配線を疎通確認する。
func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		auth   bool
		want   int
	}{
		{name: "ヘルスチェック", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "メトリクス", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{name: "リポジトリ一覧は公開", method: http.MethodGet, path: "/api/repos", want: http.StatusOK},
		{name: "リポジトリ詳細は公開", method: http.MethodGet, path: "/api/repos/r1", want: http.StatusOK},
		{name: "ユーザー別リポジトリは公開", method: http.MethodGet, path: "/api/repos/user/u1", want: http.StatusOK},
		{name: "開催予定イベントは公開", method: http.MethodGet, path: "/api/events/upcoming", want: http.StatusOK},
		{name: "イベント詳細は公開", method: http.MethodGet, path: "/api/events/e1", want: http.StatusOK},
		{name: "ニュース一覧は公開", method: http.MethodGet, path: "/api/news", want: http.StatusOK},
		{name: "ストア一覧は公開", method: http.MethodGet, path: "/api/store", want: http.StatusOK},
		{name: "アイデア一覧は公開", method: http.MethodGet, path: "/api/ideas", want: http.StatusOK},
		{name: "リソース一覧は公開", method: http.MethodGet, path: "/api/resources", want: http.StatusOK},
		{name: "公開プロフィール", method: http.MethodGet, path: "/api/users/u1/profile", want: http.StatusOK},
		{name: "自分の情報は要認証", method: http.MethodGet, path: "/api/auth/me", want: http.StatusUnauthorized},
		{name: "認証済みなら自分の情報を取得できる", method: http.MethodGet, path: "/api/auth/me", auth: true, want: http.StatusOK},
		{name: "リポジトリ削除は要認証", method: http.MethodDelete, path: "/api/repos/r1", want: http.StatusUnauthorized},
		{name: "認証済みならリポジトリ削除できる", method: http.MethodDelete, path: "/api/repos/r1", auth: true, want: http.StatusOK},
		{name: "同期は要認証", method: http.MethodPost, path: "/api/repos/r1/sync", want: http.StatusUnauthorized},
		{name: "いいねは要認証", method: http.MethodPost, path: "/api/repos/r1/like", want: http.StatusUnauthorized},
		{name: "イベント作成は要認証", method: http.MethodPost, path: "/api/events", want: http.StatusUnauthorized},
		{name: "参加登録は要認証", method: http.MethodPost, path: "/api/events/e1/attend", want: http.StatusUnauthorized},
		{name: "自分のツール一覧は要認証", method: http.MethodGet, path: "/api/store/my-tools", want: http.StatusUnauthorized},
		{name: "認証済みなら自分のツール一覧を取得できる", method: http.MethodGet, path: "/api/store/my-tools", auth: true, want: http.StatusOK},
		{name: "未定義のパスは404", method: http.MethodGet, path: "/api/unknown", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "203.0.113.1:51000"
			if tt.auth {
				req.Header.Set("Authorization", "Bearer valid-token")
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}
}

// CORSヘッダーが全レスポンスに付与される。
func TestRouterSetsCORSHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.1:51000"
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", origin)
	}
}
