package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zemon-tech/ZEMON/internal/event"
	"github.com/Zemon-tech/ZEMON/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	List(ctx context.Context, page, limit int, eventType string, status model.EventStatus) (*event.EventListWithStatus, error)
	Get(ctx context.Context, id string) (*event.EventWithStatus, error)
	ListUpcoming(ctx context.Context) ([]*event.EventWithStatus, error)
	Create(ctx context.Context, userID string, input event.CreateInput) (*model.Event, error)
	Update(ctx context.Context, userID, id string, input event.UpdateInput) (*model.Event, error)
	Delete(ctx context.Context, userID, id string) error
	ToggleAttend(ctx context.Context, userID, id string) (*model.Event, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// List はイベント一覧を返す。type/statusクエリで絞り込み可能。
// GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultListLimit)
	eventType := r.URL.Query().Get("type")
	status := model.EventStatus(r.URL.Query().Get("status"))

	list, err := h.service.List(r.Context(), page, limit, eventType, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list)
}

// Get はイベント詳細を返す。閲覧数が加算される。
// GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// ListUpcoming は開催予定イベント一覧を返す。
// GET /api/events/upcoming
func (h *EventHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, events)
}

// Create はイベント作成を処理する。
// POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req event.CreateInput
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

// Update はイベント更新を処理する。
// PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req event.UpdateInput
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

// Delete はイベント削除を処理する。
// DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessMessage(w, http.StatusOK, "Event deleted")
}

// ToggleAttend は参加登録のトグルを処理する。
// POST /api/events/{id}/attend
func (h *EventHandler) ToggleAttend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.ToggleAttend(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated)
}
