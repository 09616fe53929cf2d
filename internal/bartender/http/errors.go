package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/bartender/internal/bartender/service"
	"github.com/aussiebroadwan/bartender/pkg/authsdk"
	"github.com/aussiebroadwan/bartender/pkg/httpx"
	"github.com/aussiebroadwan/bartender/pkg/slogx"
)

var kindStatus = map[service.Kind]int{
	service.KindValidationFailed:      http.StatusBadRequest,
	service.KindAlreadyExists:         http.StatusConflict,
	service.KindInvalidCredentials:    http.StatusUnauthorized,
	service.KindInvalidOrExpiredToken: http.StatusUnauthorized,
	service.KindUserNotFound:          http.StatusNotFound,
	service.KindInternal:              http.StatusInternalServerError,
}

// writeServiceError is the single place service errors become responses.
// Internal causes are logged, never written.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = service.ErrInternal
	}

	status, ok := kindStatus[se.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if se.Kind == service.KindInternal {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, status, se.Kind.String(), service.ErrInternal.Message, nil)
		return
	}
	if se.Kind == service.KindInvalidOrExpiredToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	httpx.WriteError(w, status, se.Kind.String(), se.Message, se.Fields)
}

func writeBadBody(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, authsdk.ErrorCodeBadRequest, "Invalid request body", nil)
}
