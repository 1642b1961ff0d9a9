// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"net/http"

	"github.com/a-h/templ"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

// Page describes a module page response.
type Page struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
}

// WritePage writes a page inside the shared site layout.
func WritePage(w http.ResponseWriter, r *http.Request, deps module.Dependencies, page Page) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = templ.NopComponent
	}

	viewer := templates.Viewer{}
	if deps.ResolveUser != nil {
		if user, ok := deps.ResolveUser(r); ok {
			viewer = templates.Viewer{SignedIn: true, Name: user.Name}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	ctx := templ.WithChildren(httpx.RequestContext(r), fragment)
	return templates.Layout(page.Title, viewer).Render(ctx, w)
}
