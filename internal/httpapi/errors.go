package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sfexams/store/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFromError maps domain errors onto HTTP status codes. Unknown errors
// become 500 with a generic body so internals never leak to clients.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrBadSignature):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", err))
		msg = "internal error"
	}

	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
