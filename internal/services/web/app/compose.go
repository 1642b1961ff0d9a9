// Package app composes module mounts into the root web handler.
package app

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	Dependencies     module.Dependencies
	PublicModules    []module.Module
	ProtectedModules []module.Module
}

// Compose builds a root HTTP handler from module groups.
func Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	seen := make(map[string]string)

	for _, feature := range input.PublicModules {
		if err := mountModule(root, feature, input.Dependencies, seen, nil); err != nil {
			return nil, err
		}
	}

	wrap := wrapProtected(input.Dependencies.ResolveUser)
	for _, feature := range input.ProtectedModules {
		if err := mountModule(root, feature, input.Dependencies, seen, wrap); err != nil {
			return nil, err
		}
	}

	return root, nil
}

func mountModule(
	root *http.ServeMux,
	feature module.Module,
	deps module.Dependencies,
	seen map[string]string,
	wrap func(http.Handler) http.Handler,
) error {
	if feature == nil {
		return fmt.Errorf("module is nil")
	}
	mount, err := feature.Mount(deps)
	if err != nil {
		return fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if mount.Handler == nil {
		return fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	if len(mount.Prefixes) == 0 {
		return fmt.Errorf("mount module %q: at least one prefix is required", feature.ID())
	}
	handler := mount.Handler
	if wrap != nil {
		handler = wrap(handler)
	}
	for _, prefix := range mount.Prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("mount module %q: invalid prefix %q", feature.ID(), prefix)
		}
		if previous, ok := seen[prefix]; ok {
			return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
		}
		seen[prefix] = feature.ID()
		root.Handle(prefix, handler)
	}
	return nil
}

// wrapProtected enforces sign-in plus same-origin form posts.
func wrapProtected(resolve module.ResolveUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			return http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolve == nil {
				http.Redirect(w, r, routepath.Login, http.StatusFound)
				return
			}
			if _, ok := resolve(r); !ok {
				target := routepath.Login
				if r != nil && r.URL != nil && r.Method == http.MethodGet {
					target += "?next=" + url.QueryEscape(r.URL.RequestURI())
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			if r != nil && r.Method != http.MethodGet && r.Method != http.MethodHead && !sameOrigin(r) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		origin = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}
