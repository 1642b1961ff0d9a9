package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/users"
)

// Config defines inputs for the API handler.
type Config struct {
	Catalog *catalog.Catalog
	Tokens  *users.TokenIssuer
	// BaseURL prefixes the uri and paging links in responses, e.g.
	// "https://msc.example.org". Empty produces relative links.
	BaseURL string
}

type handlers struct {
	catalog *catalog.Catalog
	tokens  *users.TokenIssuer
	baseURL string
}

// NewHandler builds the /api2 route tree.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	h := handlers{
		catalog: cfg.Catalog,
		tokens:  cfg.Tokens,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" /api2/{item}", h.handleGetItem)
	mux.HandleFunc(http.MethodPost+" /api2/{item}", h.requireToken(h.handleCreate))
	mux.HandleFunc(http.MethodPut+" /api2/{item}", h.requireToken(h.handleReplace))
	mux.HandleFunc(http.MethodDelete+" /api2/{item}", h.requireToken(h.handleAnnul))

	mux.HandleFunc(http.MethodGet+" /api2/rel/{mscid}", h.handleRelations)
	mux.HandleFunc(http.MethodPatch+" /api2/rel/{mscid}", h.requireToken(h.handlePatchRelations))
	mux.HandleFunc(http.MethodGet+" /api2/invrel/{mscid}", h.handleInverseRelations)
	mux.HandleFunc(http.MethodPatch+" /api2/invrel/{mscid}", h.requireToken(h.handlePatchInverseRelations))

	mux.HandleFunc(http.MethodGet+" /api2/thesaurus", h.handleThesaurusScheme)
	mux.HandleFunc(http.MethodGet+" /api2/thesaurus/{term}", h.handleThesaurusTerm)

	mux.HandleFunc(http.MethodPost+" /api2/user/token", h.handleToken)
	mux.HandleFunc(http.MethodPost+" /api2/user/reset-password", h.handleResetPassword)

	mux.HandleFunc("/api2/", func(w http.ResponseWriter, _ *http.Request) {
		writeStatusError(w, http.StatusNotFound, "not_found", "no such API route")
	})
	return mux, nil
}
