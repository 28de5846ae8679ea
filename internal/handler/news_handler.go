package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/news"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	List(ctx context.Context, page, limit int, category string) (*model.NewsList, error)
	Get(ctx context.Context, id string) (*model.News, error)
	Create(ctx context.Context, userID string, input news.CreateInput) (*model.News, error)
	Update(ctx context.Context, userID, id string, input news.UpdateInput) (*model.News, error)
	Delete(ctx context.Context, userID, id string) error
	ToggleLike(ctx context.Context, userID, id string) (*model.News, error)
	AddComment(ctx context.Context, userID, id, content string) (*model.News, error)
}

// NewsHandler はニュースのHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// List はニュース一覧を返す。categoryクエリで絞り込み可能。
// GET /api/news
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultListLimit)
	category := r.URL.Query().Get("category")

	list, err := h.service.List(r.Context(), page, limit, category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

// Get はニュース詳細を返す。閲覧数が加算される。
// GET /api/news/{id}
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, article)
}

// Create はニュース記事の投稿を処理する。
// POST /api/news
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req news.CreateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created)
}

// Update はニュース記事の更新を処理する。
// PUT /api/news/{id}
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req news.UpdateInput
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

// Delete はニュース記事の削除を処理する。
// DELETE /api/news/{id}
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "News article deleted")
}

// ToggleLike はいいねのトグルを処理する。
// POST /api/news/{id}/like
func (h *NewsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
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
// POST /api/news/{id}/comments
func (h *NewsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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
