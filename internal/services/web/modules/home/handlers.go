package home

import (
	"net/http"

	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
	"github.com/mscwg/catalog/internal/services/web/platform/pagerender"
	"github.com/mscwg/catalog/internal/services/web/platform/weberror"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

type handlers struct {
	deps module.Dependencies
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{deps: deps}
}

func (h handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	counts := make(map[string]int, 5)
	for _, series := range []string{"scheme", "tool", "mapping", "organization", "endorsement"} {
		recs, err := h.deps.Catalog.List(ctx, series)
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		live := 0
		for _, rec := range recs {
			if !rec.Annulled() {
				live++
			}
		}
		counts[series] = live
	}
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title: "Home",
		Fragment: templates.Home(
			counts["scheme"], counts["tool"], counts["mapping"],
			counts["organization"], counts["endorsement"],
		),
	})
}

func (h handlers) staticPage(title, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
			Title:    title,
			Fragment: templates.StaticPage(title, body),
		})
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
}
