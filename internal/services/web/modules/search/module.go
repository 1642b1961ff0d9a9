// Package search serves the scheme search form.
package search

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/routepath"
)

// Module provides the public search routes.
type Module struct{}

// New returns a search module.
func New() Module { return Module{} }

// ID returns a stable module identifier.
func (Module) ID() string { return "search" }

// Mount wires search route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(deps)
	mux.HandleFunc(http.MethodGet+" "+routepath.Search, h.handleForm)
	mux.HandleFunc(http.MethodPost+" "+routepath.Search, h.handleSearch)
	return module.Mount{Prefixes: []string{routepath.Search}, Handler: mux}, nil
}
