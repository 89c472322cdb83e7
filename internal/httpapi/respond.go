package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the error envelope. The underlying error text is passed
// through so operators can see it, but it is trimmed and stripped of control
// characters first.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	payload := map[string]any{
		"message": sanitize(message, 256),
	}
	if err != nil {
		payload["error"] = sanitize(err.Error(), 512)
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = sanitize(id, 80)
	}
	writeJSON(w, status, payload)
}

func sanitize(value string, limit int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if limit > 0 {
		runes := []rune(value)
		if len(runes) > limit {
			value = string(runes[:limit])
		}
	}
	return value
}
