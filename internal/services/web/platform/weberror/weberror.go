// Package weberror renders shared error responses for web modules.
package weberror

import (
	"net/http"

	apperrors "github.com/mscwg/catalog/internal/errors"
	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/platform/pagerender"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

// WriteStatus writes the shared error page for a status code.
func WriteStatus(w http.ResponseWriter, r *http.Request, statusCode int, deps module.Dependencies) {
	if w == nil {
		return
	}
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	title := http.StatusText(statusCode)
	if title == "" {
		title = http.StatusText(http.StatusInternalServerError)
	}
	_ = pagerender.WritePage(w, r, deps, pagerender.Page{
		Title:      title,
		StatusCode: statusCode,
		Fragment:   templates.ErrorPage(statusCode),
	})
}

// WriteError maps a typed error onto the shared error page.
func WriteError(w http.ResponseWriter, r *http.Request, err error, deps module.Dependencies) {
	if err == nil {
		WriteStatus(w, r, http.StatusInternalServerError, deps)
		return
	}
	WriteStatus(w, r, apperrors.HTTPStatus(err), deps)
}
