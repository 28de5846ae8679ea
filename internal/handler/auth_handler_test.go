package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/auth"
	"github.com/Zemon-tech/ZEMON/internal/middleware"
	"github.com/Zemon-tech/ZEMON/internal/model"
)

// mockAuthService はテスト用のAuthServiceInterfaceモック。
type mockAuthService struct {
	user        *model.User
	token       string
	err         error
	signupCalls int
	loginCalls  int
}

func (m *mockAuthService) Signup(_ context.Context, _ auth.SignupInput) (*model.User, string, error) {
	m.signupCalls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) Login(_ context.Context, _, _ string) (*model.User, string, error) {
	m.loginCalls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) GetCurrentUser(_ context.Context, userID string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil && m.user.ID == userID {
		return m.user, nil
	}
	return nil, model.NewNotFoundError("User")
}

func (m *mockAuthService) UpdateProfile(_ context.Context, _ string, _ auth.ProfileUpdateInput) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAuthService) GetPublicProfile(_ context.Context, userID string) (map[string]any, error) {
	if m.err != nil {
		return nil, m.err
	}
	return map[string]any{"id": userID}, nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコード失敗: %v", err)
	}
	return body
}

func TestSignupHandler(t *testing.T) {
	svc := &mockAuthService{
		user:  &model.User{ID: "user-1", Name: "Alice", Email: "alice@example.com"},
		token: "signed-token",
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != true {
		t.Error("success = false")
	}
	data := body["data"].(map[string]any)
	if data["token"] != "signed-token" {
		t.Errorf("token = %v", data["token"])
	}
}

func TestSignupHandlerInvalidBody(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if svc.signupCalls != 0 {
		t.Error("不正ボディでサービスが呼ばれた")
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	svc := &mockAuthService{err: model.NewInvalidCredentialsError()}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["message"] != "Invalid credentials" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestMeHandler(t *testing.T) {
	svc := &mockAuthService{user: &model.User{ID: "user-1", Name: "Alice"}}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["name"] != "Alice" {
		t.Errorf("name = %v", data["name"])
	}
}

// 認証コンテキストのないリクエストは401になる。
func TestMeHandlerRequiresAuthentication(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPublicProfileHandler(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := chi.NewRouter()
	r.Get("/api/users/{id}/profile", h.PublicProfile)

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-9/profile", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["id"] != "user-9" {
		t.Errorf("id = %v", data["id"])
	}
}
