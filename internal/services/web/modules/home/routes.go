package home

import (
	"net/http"

	"github.com/mscwg/catalog/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" /{$}", h.handleHome)
	mux.HandleFunc(http.MethodGet+" "+routepath.About, h.staticPage("About the catalog", aboutBody))
	mux.HandleFunc(http.MethodGet+" "+routepath.TermsOfUse, h.staticPage("Terms of use", termsBody))
	mux.HandleFunc(http.MethodGet+" "+routepath.Accessibility, h.staticPage("Accessibility", accessibilityBody))
	mux.HandleFunc(http.MethodGet+" "+routepath.Contribute, h.staticPage("Contributing to the catalog", contributeBody))
	mux.HandleFunc("/", h.handleNotFound)
}
