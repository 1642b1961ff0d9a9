package auth

import (
	"net/http"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/users"
	apperrors "github.com/mscwg/catalog/internal/errors"
	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
	"github.com/mscwg/catalog/internal/services/web/platform/pagerender"
	"github.com/mscwg/catalog/internal/services/web/platform/weberror"
	"github.com/mscwg/catalog/internal/services/web/routepath"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

type handlers struct {
	deps module.Dependencies
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{deps: deps}
}

func (h handlers) provider(name string) *users.Provider {
	for _, provider := range h.deps.Providers {
		if provider != nil && provider.Name == name {
			return provider
		}
	}
	return nil
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	links := make([]templates.Link, 0, len(h.deps.Providers))
	for _, provider := range h.deps.Providers {
		if provider == nil {
			continue
		}
		links = append(links, templates.Link{
			Name: provider.Label,
			Path: "/user/login/" + provider.Name,
		})
	}
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    "Sign in",
		Fragment: templates.LoginPage(links, r.URL.Query().Get("next")),
	})
}

func (h handlers) handleProviderStart(w http.ResponseWriter, r *http.Request) {
	provider := h.provider(r.PathValue("provider"))
	if provider == nil || h.deps.BeginLogin == nil {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	next := safeNext(r.URL.Query().Get("next"))
	state := h.deps.BeginLogin(provider.Name, next)
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

func (h handlers) handleCallback(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")
	provider := h.provider(providerName)
	if provider == nil || h.deps.CompleteLogin == nil {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	query := r.URL.Query()
	startedProvider, next, ok := h.deps.CompleteLogin(query.Get("state"))
	if !ok || startedProvider != providerName {
		weberror.WriteStatus(w, r, http.StatusForbidden, h.deps)
		return
	}
	code := query.Get("code")
	if code == "" {
		weberror.WriteStatus(w, r, http.StatusForbidden, h.deps)
		return
	}

	ctx := httpx.RequestContext(r)
	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}

	store := h.deps.Catalog.Store()
	user, err := store.GetUser(ctx, identity.UserID)
	switch {
	case err == nil && user.Name != "":
		// Known user keeps their edited profile.
	case err == nil || apperrors.IsCode(err, apperrors.CodeNotFound):
		user = identity
		if saveErr := store.SaveUser(ctx, user); saveErr != nil {
			weberror.WriteError(w, r, saveErr, h.deps)
			return
		}
	default:
		weberror.WriteError(w, r, err, h.deps)
		return
	}

	if h.deps.SignIn != nil {
		h.deps.SignIn(w, r, user)
	}
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h.deps.SignOut != nil {
		h.deps.SignOut(w, r)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h handlers) currentUser(r *http.Request) (users.User, bool) {
	if h.deps.ResolveUser == nil {
		return users.User{}, false
	}
	return h.deps.ResolveUser(r)
}

func (h handlers) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Redirect(w, r, routepath.Login, http.StatusFound)
		return
	}
	ctx := httpx.RequestContext(r)
	if stored, err := h.deps.Catalog.Store().GetUser(ctx, user.UserID); err == nil {
		user = stored
	}
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title: "Your profile",
		Fragment: templates.Profile(templates.ProfilePage{
			Name:   user.Name,
			Email:  user.Email,
			UserID: user.UserID,
			Saved:  r.URL.Query().Get("saved") == "1",
		}),
	})
}

func (h handlers) handleProfilePost(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Redirect(w, r, routepath.Login, http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		weberror.WriteStatus(w, r, http.StatusBadRequest, h.deps)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))

	problems := make(map[string]string)
	if name == "" {
		problems["name"] = "A display name is required."
	}
	if email != "" && !strings.Contains(email, "@") {
		problems["email"] = "That does not look like an email address."
	}
	if len(problems) > 0 {
		_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
			Title:      "Your profile",
			StatusCode: http.StatusUnprocessableEntity,
			Fragment: templates.Profile(templates.ProfilePage{
				Name:   name,
				Email:  email,
				UserID: user.UserID,
				Errors: problems,
			}),
		})
		return
	}

	user.Name = name
	user.Email = email
	ctx := httpx.RequestContext(r)
	if err := h.deps.Catalog.Store().SaveUser(ctx, user); err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	if h.deps.SignIn != nil {
		h.deps.SignIn(w, r, user)
	}
	http.Redirect(w, r, routepath.Profile+"?saved=1", http.StatusSeeOther)
}

// handleProfileDelete blanks the stored profile and signs the user out.
// The userid stays reserved so record history keeps its attribution.
func (h handlers) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		http.Redirect(w, r, routepath.Login, http.StatusFound)
		return
	}
	ctx := httpx.RequestContext(r)
	if err := h.deps.Catalog.Store().SaveUser(ctx, users.User{UserID: user.UserID}); err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	if h.deps.SignOut != nil {
		h.deps.SignOut(w, r)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
