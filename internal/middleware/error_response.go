package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEnvelope はAPIエラーレスポンスの統一フォーマット。
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeErrorJSON は統一エンベロープでエラーレスポンスを書き込む。
func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorEnvelope{Success: false, Message: message})
}

// writeUnauthorized は401の統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeErrorJSON(w, http.StatusUnauthorized, "Authentication required")
}
