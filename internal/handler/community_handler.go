package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/community"
	"github.com/Zemon-tech/ZEMON/internal/model"
)

// CommunityServiceInterface はコミュニティハンドラーが必要とするサービスインターフェース。
type CommunityServiceInterface interface {
	ListIdeas(ctx context.Context, page, limit int) (*model.IdeaList, error)
	GetIdea(ctx context.Context, id string) (*model.Idea, error)
	CreateIdea(ctx context.Context, userID string, input community.IdeaInput) (*model.Idea, error)
	UpdateIdea(ctx context.Context, userID, id string, input community.IdeaInput) (*model.Idea, error)
	DeleteIdea(ctx context.Context, userID, id string) error
	AddIdeaComment(ctx context.Context, userID, id, text string) (*model.Idea, error)
	ListResources(ctx context.Context) ([]*model.CommunityResource, error)
	CreateResource(ctx context.Context, userID string, input community.ResourceInput) (*model.CommunityResource, error)
	DeleteResource(ctx context.Context, userID, id string) error
}

// CommunityHandler はアイデアとリソース共有のHTTPハンドラー。
type CommunityHandler struct {
	service CommunityServiceInterface
}

// NewCommunityHandler はCommunityHandlerを生成する。
func NewCommunityHandler(service CommunityServiceInterface) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// ideaCommentRequest はアイデアコメント投稿リクエストのボディ。
type ideaCommentRequest struct {
	Text string `json:"text"`
}

// ListIdeas はアイデア一覧を返す。
// GET /api/ideas
func (h *CommunityHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultListLimit)

	list, err := h.service.ListIdeas(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

// GetIdea はアイデア詳細を返す。
// GET /api/ideas/{id}
func (h *CommunityHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := h.service.GetIdea(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, idea)
}

// CreateIdea はアイデア投稿を処理する。
// POST /api/ideas
func (h *CommunityHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req community.IdeaInput
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreateIdea(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created)
}

// UpdateIdea はアイデア更新を処理する。
// PUT /api/ideas/{id}
func (h *CommunityHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req community.IdeaInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateIdea(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated)
}

// DeleteIdea はアイデア削除を処理する。
// DELETE /api/ideas/{id}
func (h *CommunityHandler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteIdea(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "Idea deleted")
}

// AddIdeaComment はアイデアへのコメント投稿を処理する。
// POST /api/ideas/{id}/comments
func (h *CommunityHandler) AddIdeaComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ideaCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.AddIdeaComment(r.Context(), userID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, updated)
}

// ListResources は学習リソース一覧を返す。
// GET /api/resources
func (h *CommunityHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.ListResources(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, resources)
}

// CreateResource は学習リソースの共有を処理する。
// POST /api/resources
func (h *CommunityHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req community.ResourceInput
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreateResource(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created)
}

// DeleteResource は学習リソースの削除を処理する。
// DELETE /api/resources/{id}
func (h *CommunityHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteResource(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "Resource deleted")
}
