package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResolver renders service and gate errors as enveloped JSON.
// AuthError reasons are returned to the client; anything unclassified is
// logged and answered with a generic 500.
type ErrorResolver struct {
	logger logging.Logger
}

func NewErrorResolver(logger logging.Logger) *ErrorResolver {
	return &ErrorResolver{logger: logger}
}

func (e *ErrorResolver) Resolve(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	message := common.Reason(err)
	if status == http.StatusInternalServerError {
		e.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		message = http.StatusText(status)
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeJSON(w, status, Response{Code: status, Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
