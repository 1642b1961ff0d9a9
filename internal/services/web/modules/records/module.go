// Package records serves record display, index and browse pages.
package records

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/routepath"
)

// Module provides the public record browsing routes.
type Module struct{}

// New returns a records module.
func New() Module { return Module{} }

// ID returns a stable module identifier.
func (Module) ID() string { return "records" }

// Mount wires record route handlers.
func (Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(deps)
	registerRoutes(mux, h)
	return module.Mount{
		Prefixes: []string{
			"/msc/",
			routepath.SchemeIndex,
			routepath.ToolIndex,
			routepath.MappingIndex,
			routepath.OrganizationIndex,
			"/organization-index/",
			routepath.EndorsementIndex,
			routepath.SchemeTree,
			routepath.SubjectIndex,
			"/subject/",
			routepath.DatatypeIndex,
			"/datatype/",
		},
		Handler: mux,
	}, nil
}
