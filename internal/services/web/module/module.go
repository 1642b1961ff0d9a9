// Package module defines the mount contract shared by web modules.
package module

import (
	"net/http"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/users"
)

// Mount binds one handler to the route prefixes it owns.
type Mount struct {
	Prefixes []string
	Handler  http.Handler
}

// Module is a self-contained group of web routes.
type Module interface {
	ID() string
	Mount(Dependencies) (Mount, error)
}

// ResolveUser reports the signed-in user for a request, if any.
type ResolveUser func(*http.Request) (users.User, bool)

// SignIn records a session for the user and sets the session cookie.
type SignIn func(http.ResponseWriter, *http.Request, users.User)

// SignOut destroys the current session and clears the cookie.
type SignOut func(http.ResponseWriter, *http.Request)

// BeginLogin records an OAuth state token for a provider round trip.
type BeginLogin func(provider, next string) string

// CompleteLogin consumes a state token from a provider callback.
type CompleteLogin func(state string) (provider, next string, ok bool)

// Dependencies carries shared services into module mounts.
type Dependencies struct {
	Catalog       *catalog.Catalog
	Providers     []*users.Provider
	ResolveUser   ResolveUser
	SignIn        SignIn
	SignOut       SignOut
	BeginLogin    BeginLogin
	CompleteLogin CompleteLogin
}
