package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errorResponse 失敗時の応答 (画面のステータス欄にそのまま表示する)
type errorResponse struct {
	Success bool     `json:"success"`
	RunID   string   `json:"run_id,omitempty"`
	Errors  []string `json:"errors"`
}

func sendError(w http.ResponseWriter, status int, runID, msg string) {
	writeJSON(w, status, errorResponse{Success: false, RunID: runID, Errors: []string{msg}})
}
