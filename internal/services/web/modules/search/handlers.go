package search

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	apperrors "github.com/mscwg/catalog/internal/errors"
	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
	"github.com/mscwg/catalog/internal/services/web/platform/pagerender"
	"github.com/mscwg/catalog/internal/services/web/platform/weberror"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

type handlers struct {
	deps module.Dependencies
	coll *collate.Collator
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		deps: deps,
		coll: collate.New(language.English, collate.IgnoreCase),
	}
}

func (h handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	page, err := h.emptyPage(r)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	h.write(w, r, page)
}

func (h handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		weberror.WriteStatus(w, r, http.StatusBadRequest, h.deps)
		return
	}
	page, err := h.emptyPage(r)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	page.Title = strings.TrimSpace(r.PostFormValue("title"))
	page.Keyword = strings.TrimSpace(r.PostFormValue("keyword"))
	page.Identifier = strings.TrimSpace(r.PostFormValue("identifier"))
	page.Funder = strings.TrimSpace(r.PostFormValue("funder"))
	page.DataType = strings.TrimSpace(r.PostFormValue("dataType"))

	query := buildQuery(page)
	if query == "" && page.Funder == "" && page.DataType == "" {
		page.Problem = "Enter at least one search term."
		h.write(w, r, page)
		return
	}

	ctx := httpx.RequestContext(r)
	recs, err := h.deps.Catalog.Search(ctx, query)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeQueryMalformed) || apperrors.IsCode(err, apperrors.CodeQueryTooLong) {
			page.Problem = "That search could not be understood. Check any quotes or brackets and try again."
			h.write(w, r, page)
			return
		}
		weberror.WriteError(w, r, err, h.deps)
		return
	}

	var results []templates.Link
	for _, rec := range recs {
		if rec.ID.Table != mscid.TableScheme {
			continue
		}
		if page.DataType != "" && !containsString(stringList(rec.Data, "dataTypes"), page.DataType) {
			continue
		}
		if page.Funder != "" {
			rels, relErr := h.deps.Catalog.Relations(ctx, rec.ID.String())
			if relErr != nil {
				weberror.WriteError(w, r, relErr, h.deps)
				return
			}
			if !containsString(rels["funders"], page.Funder) {
				continue
			}
		}
		results = append(results, templates.Link{
			Name: rec.Name(),
			Path: "/msc/" + strings.TrimPrefix(rec.ID.String(), mscid.Prefix),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return h.coll.CompareString(results[i].Name, results[j].Name) < 0
	})
	page.Searched = true
	page.Results = results
	h.write(w, r, page)
}

// buildQuery assembles a catalog query from the form fields. Funder and
// data type are relation filters applied after the text search.
func buildQuery(page templates.SearchPage) string {
	var parts []string
	if page.Title != "" {
		parts = append(parts, "title:"+quoteTerm(page.Title))
	}
	if page.Keyword != "" {
		parts = append(parts, "keyword="+quoteTerm(page.Keyword))
	}
	if page.Identifier != "" {
		parts = append(parts, "identifiers:"+quoteTerm(page.Identifier))
	}
	if len(parts) == 0 {
		// Relation-only searches still need a match-everything base query.
		return "id:msc"
	}
	return strings.Join(parts, " AND ")
}

func quoteTerm(value string) string {
	if strings.ContainsAny(value, " \t()[]") {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}

func (h handlers) emptyPage(r *http.Request) (templates.SearchPage, error) {
	ctx := httpx.RequestContext(r)
	page := templates.SearchPage{}

	for _, term := range h.deps.Catalog.Thesaurus().Terms() {
		page.Keywords = append(page.Keywords, term.Label)
	}
	sort.SliceStable(page.Keywords, func(i, j int) bool {
		return h.coll.CompareString(page.Keywords[i], page.Keywords[j]) < 0
	})

	orgs, err := h.deps.Catalog.List(ctx, "organization")
	if err != nil {
		return page, err
	}
	for _, rec := range orgs {
		if rec.Annulled() {
			continue
		}
		page.Funders = append(page.Funders, templates.Link{Name: rec.Name(), Path: rec.ID.String()})
	}
	sort.SliceStable(page.Funders, func(i, j int) bool {
		return h.coll.CompareString(page.Funders[i].Name, page.Funders[j].Name) < 0
	})

	datatypes, err := h.deps.Catalog.List(ctx, "datatype")
	if err != nil {
		return page, err
	}
	for _, rec := range datatypes {
		if rec.Annulled() {
			continue
		}
		page.DataTypes = append(page.DataTypes, templates.Link{Name: rec.Name(), Path: rec.ID.String()})
	}
	sort.SliceStable(page.DataTypes, func(i, j int) bool {
		return h.coll.CompareString(page.DataTypes[i].Name, page.DataTypes[j].Name) < 0
	})

	return page, nil
}

func (h handlers) write(w http.ResponseWriter, r *http.Request, page templates.SearchPage) {
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    "Search",
		Fragment: templates.SearchForm(page),
	})
}

func stringList(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, isStr := item.(string); isStr {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
