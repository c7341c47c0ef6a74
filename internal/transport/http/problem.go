package transporthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/storage"
)

// ApiError is the error body of both services.
type ApiError struct {
	Errors    []string      `json:"errors"`
	Message   string        `json:"message"`
	Reason    string        `json:"reason"`
	Status    string        `json:"status"`
	Timestamp datetime.Time `json:"timestamp"`
}

type errorClass struct {
	code   int
	status string
	reason string
}

var (
	classNotFound   = errorClass{http.StatusNotFound, "NOT_FOUND", "The required object was not found."}
	classConflict   = errorClass{http.StatusConflict, "CONFLICT", "For the requested operation the conditions are not met."}
	classBadRequest = errorClass{http.StatusBadRequest, "BAD_REQUEST", "Incorrectly made request."}
	classInternal   = errorClass{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error."}
)

func classify(err error) errorClass {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return classNotFound
	case apperr.KindConflict:
		return classConflict
	case apperr.KindValidation:
		return classBadRequest
	}
	// storage sentinels the services let through, e.g. a serialization
	// failure surfacing at commit
	switch {
	case errors.Is(err, storage.ErrConflict):
		return classConflict
	case errors.Is(err, storage.ErrNotFound):
		return classNotFound
	default:
		return classInternal
	}
}

// WriteError renders err as an ApiError. Unclassified errors are logged and
// reported as 500 without their message.
func WriteError(w http.ResponseWriter, r *http.Request, log *logrus.Entry, err error) {
	c := classify(err)
	body := ApiError{
		Errors:    []string{},
		Message:   err.Error(),
		Reason:    c.reason,
		Status:    c.status,
		Timestamp: datetime.New(time.Now()),
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && len(ae.Details) > 0 {
		body.Errors = ae.Details
	}
	if c.code == http.StatusInternalServerError {
		logging.For(r.Context(), log).WithError(err).Error("request failed")
		body.Message = "Unexpected error"
	}
	WriteJSON(w, c.code, body)
}

// WriteProblem writes an ApiError for failures detected in the transport
// itself (bad parameters, auth, rate limits).
func WriteProblem(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, ApiError{
		Errors:    []string{},
		Message:   message,
		Reason:    http.StatusText(code),
		Status:    statusName(code),
		Timestamp: datetime.New(time.Now()),
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func statusName(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
