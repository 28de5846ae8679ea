// Package handler はHTTP APIのハンドラー層を提供する。
// すべてのレスポンスは {"success": bool, ...} のエンベロープで統一する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Zemon-tech/ZEMON/internal/middleware"
	"github.com/Zemon-tech/ZEMON/internal/model"
)

// successEnvelope は成功レスポンスの統一フォーマット。
type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorEnvelope はエラーレスポンスの統一フォーマット。
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeSuccess は成功レスポンスを書き込む。
func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}

// writeSuccessMessage はデータを伴わない成功レスポンスを書き込む。
func writeSuccessMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successEnvelope{Success: true, Message: message})
}

// writeError はエラーレスポンスを書き込む。
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorEnvelope{Success: false, Message: message})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidURL,
		model.ErrCodeDuplicateRepo, model.ErrCodeDuplicateEmail:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeNotFound, model.ErrCodeGitHubNotFound:
		return http.StatusNotFound
case model.ErrCodeGitHubRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeGitHubFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをデコードする。
// 失敗時は400レスポンスを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requireUserID はコンテキストから認証済みユーザーIDを取得する。
// 取得できない場合は401レスポンスを書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}

// parsePagination はクエリパラメータからページングを読み取る。
// 欠損・不正値・0以下はデフォルト値に丸める。
func parsePagination(r *http.Request, defaultLimit int) (page, limit int) {
	page = parsePositiveInt(r.URL.Query().Get("page"), 1)
	limit = parsePositiveInt(r.URL.Query().Get("limit"), defaultLimit)
	return page, limit
}

func parsePositiveInt(raw string, defaultVal int) int {
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return defaultVal
	}
	return v
}
