package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zemon-tech/ZEMON/internal/auth"
)

// mockVerifier はテスト用のTokenVerifierモック。
type mockVerifier struct {
	claims      *auth.Claims
	err         error
	verifyCalls int
}

func (m *mockVerifier) Verify(_ string) (*auth.Claims, error) {
	m.verifyCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func validClaims(userID string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
}

// echoUserIDHandler はコンテキストのユーザーIDをそのままボディに書き出す。
func echoUserIDHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(userID))
	})
}

func TestAuthMiddlewareInjectsUserID(t *testing.T) {
	verifier := &mockVerifier{claims: validClaims("user-1")}
	handler := NewAuthMiddleware(verifier)(echoUserIDHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "user-1" {
		t.Errorf("user ID = %q, want %q", got, "user-1")
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	verifier := &mockVerifier{claims: validClaims("user-1")}
	handler := NewAuthMiddleware(verifier)(echoUserIDHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if verifier.verifyCalls != 0 {
		t.Errorf("トークンなしでVerifyが呼ばれた: %d回", verifier.verifyCalls)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコード失敗: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Message == "" {
		t.Error("message が空")
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	verifier := &mockVerifier{err: errors.New("token is malformed")}
	handler := NewAuthMiddleware(verifier)(echoUserIDHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer broken-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsNonBearerScheme(t *testing.T) {
	verifier := &mockVerifier{claims: validClaims("user-1")}
	handler := NewAuthMiddleware(verifier)(echoUserIDHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if verifier.verifyCalls != 0 {
		t.Errorf("Bearer以外のスキームでVerifyが呼ばれた: %d回", verifier.verifyCalls)
	}
}

// 公開エンドポイントは匿名リクエストをそのまま通過させる。
func TestOptionalAuthMiddlewareAllowsAnonymous(t *testing.T) {
	verifier := &mockVerifier{claims: validClaims("user-1")}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := UserIDFromContext(r.Context()); err == nil {
			t.Error("匿名リクエストにユーザーIDが注入された")
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := NewOptionalAuthMiddleware(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestOptionalAuthMiddlewareInjectsUserIDWhenPresent(t *testing.T) {
	verifier := &mockVerifier{claims: validClaims("user-1")}
	handler := NewOptionalAuthMiddleware(verifier)(echoUserIDHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "user-1" {
		t.Errorf("user ID = %q, want %q", got, "user-1")
	}
}

// 無効なトークンでも公開エンドポイントは匿名として通過させる。
func TestOptionalAuthMiddlewareIgnoresInvalidToken(t *testing.T) {
	verifier := &mockVerifier{err: errors.New("token is expired")}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewOptionalAuthMiddleware(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestUserIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("空のコンテキストでエラーが返らない")
	}
}
