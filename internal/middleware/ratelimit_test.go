package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// newTestLimiter はバースト2、補充ほぼゼロのリミッターを生成する。
func newTestLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    2,
		RepoRegRate:     rate.Limit(0.001),
		RepoRegBurst:    1,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func TestGeneralMiddlewareLimitsPerClient(t *testing.T) {
	rl := newTestLimiter(t)
	handler := rl.GeneralMiddleware()(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.RemoteAddr = "203.0.113.1:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("バースト超過後のstatus = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーがない")
	}
}

// 別クライアントの制限は独立している。
func TestGeneralMiddlewareSeparatesClients(t *testing.T) {
	rl := newTestLimiter(t)
	handler := rl.GeneralMiddleware()(okHandler())

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// 1つ目のクライアントを枯渇させる
	send("203.0.113.1:51000")
	send("203.0.113.1:51000")
	if code := send("203.0.113.1:51000"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}

	// 2つ目のクライアントは影響を受けない
	if code := send("203.0.113.2:51000"); code != http.StatusOK {
		t.Errorf("別クライアントのstatus = %d, want 200", code)
	}

	if count := rl.GeneralLimiterCount(); count != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", count)
	}
}

// 認証済みリクエストはIPではなくユーザーIDで制限される。
func TestGeneralMiddlewareKeysByUserID(t *testing.T) {
	rl := newTestLimiter(t)
	handler := rl.GeneralMiddleware()(okHandler())

	send := func(userID, remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
		req.RemoteAddr = remoteAddr
		if userID != "" {
			req = req.WithContext(ContextWithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// 同一IPでもユーザーが違えば別キー
	send("user-1", "203.0.113.1:51000")
	send("user-1", "203.0.113.1:51000")
	if code := send("user-1", "203.0.113.1:51000"); code != http.StatusTooManyRequests {
		t.Fatalf("user-1のstatus = %d, want 429", code)
	}
	if code := send("user-2", "203.0.113.1:51000"); code != http.StatusOK {
		t.Errorf("user-2のstatus = %d, want 200", code)
	}
	if code := send("", "203.0.113.1:51000"); code != http.StatusOK {
		t.Errorf("匿名のstatus = %d, want 200", code)
	}
}

// リポジトリ登録の制限はAPI全般と独立したバケットを使う。
func TestRepoRegistrationMiddlewareIndependentBucket(t *testing.T) {
	rl := newTestLimiter(t)
	general := rl.GeneralMiddleware()(okHandler())
	repoReg := rl.RepoRegistrationMiddleware()(okHandler())

	send := func(handler http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/api/repos", nil)
		req.RemoteAddr = "203.0.113.1:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// 登録バケット（バースト1）を枯渇させる
	if code := send(repoReg); code != http.StatusOK {
		t.Fatalf("repoReg 1回目のstatus = %d, want 200", code)
	}
	if code := send(repoReg); code != http.StatusTooManyRequests {
		t.Fatalf("repoReg 2回目のstatus = %d, want 429", code)
	}

	// API全般のバケットは消費されていない
	if code := send(general); code != http.StatusOK {
		t.Errorf("generalのstatus = %d, want 200", code)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	config := NewRateLimiterConfig(120, 10)

	if config.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", config.GeneralBurst)
	}
	if config.RepoRegBurst != 10 {
		t.Errorf("RepoRegBurst = %d, want 10", config.RepoRegBurst)
	}
	if config.GeneralRate != rate.Limit(2.0) {
		t.Errorf("GeneralRate = %v, want 2.0", config.GeneralRate)
	}
}
