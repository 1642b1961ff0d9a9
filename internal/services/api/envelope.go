// Package api serves the public JSON interface under /api2.
package api

import (
	"net/http"

	"github.com/mscwg/catalog/internal/catalog/relations"
	apperrors "github.com/mscwg/catalog/internal/errors"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
)

// Version is the API version stamped on every envelope.
const Version = "2.1.0"

type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Errors  []relations.FieldError `json:"errors,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	_ = httpx.WriteJSON(w, status, envelope{APIVersion: Version, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	_ = httpx.WriteJSON(w, apperrors.HTTPStatus(err), envelope{
		APIVersion: Version,
		Error: &errorBody{
			Code:    string(apperrors.GetCode(err)),
			Message: err.Error(),
		},
	})
}

func writeFieldErrors(w http.ResponseWriter, status int, message string, errs []relations.FieldError) {
	_ = httpx.WriteJSON(w, status, envelope{
		APIVersion: Version,
		Error: &errorBody{
			Code:    "invalid_request",
			Message: message,
			Errors:  errs,
		},
	})
}

func writeStatusError(w http.ResponseWriter, status int, code, message string) {
	_ = httpx.WriteJSON(w, status, envelope{
		APIVersion: Version,
		Error:      &errorBody{Code: code, Message: message},
	})
}
