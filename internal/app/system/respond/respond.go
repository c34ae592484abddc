// internal/app/system/respond/respond.go

// Package respond writes the uniform response envelope used by every
// endpoint: {"message": ..., "data": ..., "error": ...}. Destructive
// operations only reach JSON after their write transaction commits, so
// a success envelope is never emitted for partial progress.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Envelope is the uniform response body.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope with the given status.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(Envelope{Message: message, Data: data})
}

// Error maps an error from the taxonomy onto a status code and writes
// the envelope. NotFound/Forbidden/Validation surface as-is; anything
// else becomes a generic 500 carrying the underlying message for
// diagnostics (no stack traces).
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var nf *apperr.NotFound
	var fb *apperr.Forbidden
	var vd *apperr.Validation
	switch {
	case errors.As(err, &nf):
		status = http.StatusNotFound
		message = nf.Error()
	case errors.As(err, &fb):
		status = http.StatusForbidden
		message = fb.Error()
	case errors.As(err, &vd):
		status = http.StatusBadRequest
		message = vd.Error()
	default:
		log.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Message: message, Error: err.Error()})
}
