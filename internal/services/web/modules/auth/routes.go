package auth

import (
	"net/http"

	"github.com/mscwg/catalog/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Login, h.handleLogin)
	mux.HandleFunc(http.MethodGet+" "+routepath.LoginProvider, h.handleProviderStart)
	mux.HandleFunc(http.MethodGet+" "+routepath.CallbackProvider, h.handleCallback)
	mux.HandleFunc(http.MethodGet+" "+routepath.Logout, h.handleLogout)
	mux.HandleFunc(http.MethodGet+" "+routepath.Profile, h.handleProfileGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.Profile, h.handleProfilePost)
	mux.HandleFunc(http.MethodPost+" "+routepath.ProfileDelete, h.handleProfileDelete)
}
