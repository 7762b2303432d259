package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/lock"
	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

// Error codes returned in APIError.Error.Code.
const (
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeRunInProgress     = "run_in_progress"
	CodeNotAvailable      = "not_available"
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeStorageError      = "storage_error"
	CodeUpstreamError     = "upstream_error"
	CodeStreamUnsupported = "stream_unsupported"
	CodeInternal          = "internal_error"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteDomainError maps err onto a status and code by its error type.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	WriteError(w, r, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, lock.ErrRunInProgress):
		return http.StatusConflict, CodeRunInProgress
	case errors.Is(err, objstore.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeNotFound:
		return http.StatusNotFound, CodeNotFound
	case apperrors.ErrTypeInvalidInput:
		return http.StatusBadRequest, CodeInvalidInput
	case apperrors.ErrTypeConflict:
		return http.StatusConflict, CodeRunInProgress
	case apperrors.ErrTypeUnavailable:
		return http.StatusBadGateway, CodeStorageError
	case apperrors.ErrTypeTransport:
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
