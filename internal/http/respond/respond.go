// Package respond writes JSON bodies and the error envelope shared by all handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/http/request"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

type envelope struct {
	Message []string `json:"message"`
	Data    struct{} `json:"data"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Message writes the error envelope with the given status.
func Message(w http.ResponseWriter, status int, msgs ...string) {
	JSON(w, status, envelope{Message: msgs})
}

// StatusOf maps domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case ledger.IsValidation(err), errors.Is(err, request.ErrBadParam):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Error writes err in the envelope. Unexpected errors are logged and hidden.
func Error(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		Message(w, status, "internal error")

		return
	}

	Message(w, status, err.Error())
}

// Fixed renders a value with the ledger's six decimal places.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(valuation.Places)
}
