// Package home serves the landing page and fixed prose pages.
package home

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
)

// Module provides the public home routes.
type Module struct{}

// New returns a home module.
func New() Module { return Module{} }

// ID returns a stable module identifier.
func (Module) ID() string { return "home" }

// Mount wires home route handlers. The "/" prefix makes this module the
// fallback for unmatched paths, so it also owns the site 404 page.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(deps)
	registerRoutes(mux, h)
	return module.Mount{Prefixes: []string{"/"}, Handler: mux}, nil
}
