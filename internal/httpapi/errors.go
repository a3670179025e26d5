package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apex/log"

	"github.com/goliatone/go-blog/article"
)

// ErrUnauthorized is returned by the bearer token guard.
var ErrUnauthorized = errors.New("httpapi: unauthorized")

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and body. Unexpected errors are
// logged and answered without their text.
func writeError(w http.ResponseWriter, r *http.Request, logger log.Interface, err error) {
	var verr *article.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: verr.Details()})
	case errors.Is(err, article.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Article not found"})
	case errors.Is(err, ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
	case errors.Is(err, article.ErrSlugExhausted):
		writeJSON(w, http.StatusConflict, ErrorResponse{Message: "Could not allocate a unique slug"})
	default:
		requestLogger(r, logger).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: message})
}
