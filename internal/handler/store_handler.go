package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/model"
	"github.com/Zemon-tech/ZEMON/internal/store"
)

// defaultStoreLimit はストア一覧のデフォルト件数。他の一覧より大きいグリッド表示を想定する。
const defaultStoreLimit = 12

// StoreServiceInterface はストアハンドラーが必要とするサービスインターフェース。
type StoreServiceInterface interface {
	List(ctx context.Context, page, limit int, category, status string) (*model.StoreItemList, error)
	Get(ctx context.Context, id string) (*model.StoreItem, error)
	ListUserTools(ctx context.Context, userID string) ([]*model.StoreItem, error)
	Create(ctx context.Context, userID string, input store.CreateInput) (*model.StoreItem, error)
	Update(ctx context.Context, userID, id string, input store.UpdateInput) (*model.StoreItem, error)
	Delete(ctx context.Context, userID, id string) error
	AddReview(ctx context.Context, userID, id string, input store.ReviewInput) (*model.StoreItem, error)
}

// StoreHandler は開発者ツールストアのHTTPハンドラー。
type StoreHandler struct {
	service StoreServiceInterface
}

// NewStoreHandler はStoreHandlerを生成する。
func NewStoreHandler(service StoreServiceInterface) *StoreHandler {
	return &StoreHandler{service: service}
}

// List はストアアイテム一覧を返す。category/statusクエリで絞り込み可能。
// statusが未指定の場合はapprovedのみを返す。
// GET /api/store
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultStoreLimit)
	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StoreStatusApproved
	}

	list, err := h.service.List(r.Context(), page, limit, category, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

// Get はストアアイテム詳細を返す。閲覧数が加算される。
// GET /api/store/{id}
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, item)
}

// ListUserTools は認証済みユーザーが公開したツール一覧を返す。
// GET /api/store/my-tools
func (h *StoreHandler) ListUserTools(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListUserTools(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items)
}

// Create はストアアイテムの公開を処理する。
// POST /api/store
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req store.CreateInput
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

// Update はストアアイテムの更新を処理する。
// PUT /api/store/{id}
func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req store.UpdateInput
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

// Delete はストアアイテムの削除を処理する。
// DELETE /api/store/{id}
func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "Store item deleted")
}

// AddReview はレビュー投稿を処理する。
// POST /api/store/{id}/reviews
func (h *StoreHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req store.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.AddReview(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, updated)
}
