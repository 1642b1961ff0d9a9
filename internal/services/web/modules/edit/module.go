// Package edit serves the record edit forms. All routes require sign-in.
package edit

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/routepath"
)

// Module provides the protected edit routes.
type Module struct{}

// New returns an edit module.
func New() Module { return Module{} }

// ID returns a stable module identifier.
func (Module) ID() string { return "edit" }

// Mount wires edit route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(deps)
	mux.HandleFunc(http.MethodGet+" "+routepath.EditPattern, h.handleForm)
	mux.HandleFunc(http.MethodPost+" "+routepath.EditPattern, h.handleSave)
	return module.Mount{Prefixes: []string{routepath.EditPrefix}, Handler: mux}, nil
}
