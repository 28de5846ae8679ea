package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/repo"
)

// defaultListLimit は一覧エンドポイントのデフォルト件数。
const defaultListLimit = 10

// RepoServiceInterface はリポジトリハンドラーが必要とするサービスインターフェース。
type RepoServiceInterface interface {
	List(ctx context.Context, page, limit int) (*model.RepoList, error)
	Get(ctx context.Context, id string) (*model.Repo, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Repo, error)
	Create(ctx context.Context, userID, rawURL, language string, tags []string) (*model.Repo, error)
	Update(ctx context.Context, userID, id string, input repo.UpdateInput) (*model.Repo, error)
	Delete(ctx context.Context, userID, id string) error
	Sync(ctx context.Context, id string) (*model.Repo, error)
	ToggleLike(ctx context.Context, userID, id string) (*model.Repo, error)
	AddComment(ctx context.Context, userID, id, content string) (*model.Repo, error)
}

// RepoHandler はリポジトリ共有のHTTPハンドラー。
type RepoHandler struct {
	service RepoServiceInterface
}

// NewRepoHandler はRepoHandlerを生成する。
func NewRepoHandler(service RepoServiceInterface) *RepoHandler {
	return &RepoHandler{service: service}
}

// createRepoRequest はリポジトリ登録リクエストのボディ。
type createRepoRequest struct {
	GitHubURL string   `json:"github_url"`
	Language  string   `json:"language"`
	Tags      []string `json:"tags"`
}

// commentRequest はコメント投稿リクエストのボディ。
type commentRequest struct {
	Content string `json:"content"`
}

// List はリポジトリ一覧を返す。
// GET /api/repos
func (h *RepoHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultListLimit)

	list, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

// Get はリポジトリ詳細を返す。
// GET /api/repos/{id}
func (h *RepoHandler) Get(w http.ResponseWriter, r *http.Request) {
	repo, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, repo)
}

// ListByUser はユーザー別リポジトリ一覧を返す。
// GET /api/repos/user/{userId}
func (h *RepoHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	repos, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, repos)
}

// Create はGitHubリポジトリの登録を処理する。
// POST /api/repos
func (h *RepoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createRepoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GitHubURL == "" {
		writeError(w, http.StatusBadRequest, "github_url is required")
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.GitHubURL, req.Language, req.Tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created)
}

// Update はリポジトリの編集を処理する。
// PUT /api/repos/{id}
func (h *RepoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req repo.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated)
}

// Delete はリポジトリの削除を処理する。
// DELETE /api/repos/{id}
func (h *RepoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "Repository deleted")
}

// Sync はGitHubメタデータの手動同期を処理する。
// POST /api/repos/{id}/sync
func (h *RepoHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	synced, err := h.service.Sync(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, synced)
}

// ToggleLike はいいねのトグルを処理する。
// POST /api/repos/{id}/like
func (h *RepoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated)
}

// AddComment はコメント投稿を処理する。
// POST /api/repos/{id}/comments
func (h *RepoHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.AddComment(r.Context(), userID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, updated)
}
