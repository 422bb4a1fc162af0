package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/w-h-a/recall"
	"github.com/w-h-a/recall/personality"
	"github.com/w-h-a/recall/renderer"
	"github.com/w-h-a/recall/semanticindex"
	"github.com/w-h-a/recall/sessionstore"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, recall.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sessionstore.ErrNotFound), errors.Is(err, personality.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, personality.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, personality.ErrInvalid), errors.Is(err, renderer.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, semanticindex.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
