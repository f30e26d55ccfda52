package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bookgrep/bookgrep/internal/book"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func mapError(err error) int {
	switch {
	case errors.Is(err, book.ErrAccountNotFound),
		errors.Is(err, book.ErrTransactionNotFound),
		errors.Is(err, book.ErrSplitNotFound):
		return http.StatusNotFound
	case errors.Is(err, book.ErrInvalidPattern),
		errors.Is(err, book.ErrInvalidLookback):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
