// Package auth serves sign-in, sign-out and profile routes.
package auth

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
)

// Module provides the sign-in and profile routes. The routes handle their
// own sign-in checks, so the module mounts in the public group.
type Module struct{}

// New returns an auth module.
func New() Module { return Module{} }

// ID returns a stable module identifier.
func (Module) ID() string { return "auth" }

// Mount wires auth route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(deps)
	registerRoutes(mux, h)
	return module.Mount{Prefixes: []string{"/user/"}, Handler: mux}, nil
}
