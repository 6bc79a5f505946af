package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// errorBody is the envelope for all non-2xx responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

// writeSuccess wraps the payload fields in the success envelope. Fields named
// "success" in the payload are overwritten.
func writeSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, short, detail string) {
	writeJSON(w, status, errorBody{Error: short, Message: detail})
}

// writeInternalError logs the underlying error and returns an opaque 500.
// SQL and driver errors never reach response bodies.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: internal error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
}

func writeNotFound(w http.ResponseWriter, resource, id string) {
	writeError(w, http.StatusNotFound, "not_found", resource+" "+id+" not found")
}
