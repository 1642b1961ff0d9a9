package records

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	catalogrecords "github.com/mscwg/catalog/internal/catalog/records"
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

func recordPath(idStr string) string {
	return "/msc/" + strings.TrimPrefix(idStr, mscid.Prefix)
}

func (h handlers) signedIn(r *http.Request) bool {
	if h.deps.ResolveUser == nil {
		return false
	}
	_, ok := h.deps.ResolveUser(r)
	return ok
}

func (h handlers) sortLinks(items []templates.Link) {
	sort.SliceStable(items, func(i, j int) bool {
		return h.coll.CompareString(items[i].Name, items[j].Name) < 0
	})
}

func (h handlers) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	idStr := mscid.Prefix + r.PathValue("mscid")
	view, err := h.deps.Catalog.View(ctx, idStr)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	if view.Record.Annulled() {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	page, err := h.buildRecordPage(ctx, view, h.signedIn(r))
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    page.Title,
		Fragment: templates.Record(page),
	})
}

func (h handlers) seriesIndex(series, heading string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := httpx.RequestContext(r)
		recs, err := h.deps.Catalog.List(ctx, series)
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		items := make([]templates.Link, 0, len(recs))
		for _, rec := range recs {
			if rec.Annulled() {
				continue
			}
			items = append(items, templates.Link{
				Name: h.recordName(ctx, rec),
				Path: recordPath(rec.ID.String()),
			})
		}
		h.sortLinks(items)
		_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
			Title:    heading,
			Fragment: templates.IndexPage(heading, items),
		})
	}
}

// recordName resolves display names, going through the full view for
// crosswalks and endorsements whose names derive from related records.
func (h handlers) recordName(ctx context.Context, rec catalogrecords.Record) string {
	switch rec.ID.Table {
	case mscid.TableCrosswalk, mscid.TableEndorsement:
		if view, err := h.deps.Catalog.View(ctx, rec.ID.String()); err == nil {
			return view.Name
		}
	}
	return rec.Name()
}

var rolePrefixes = map[string]string{
	"maintainer": "maintained",
	"funder":     "funded",
	"user":       "used",
}

func (h handlers) handleOrganizationRole(w http.ResponseWriter, r *http.Request) {
	role := r.PathValue("role")
	prefix, ok := rolePrefixes[role]
	if !ok {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	ctx := httpx.RequestContext(r)
	recs, err := h.deps.Catalog.List(ctx, "organization")
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	var items []templates.Link
	for _, rec := range recs {
		if rec.Annulled() {
			continue
		}
		rels, err := h.deps.Catalog.InverseRelations(ctx, rec.ID.String())
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		for label, targets := range rels {
			if strings.HasPrefix(label, prefix) && len(targets) > 0 {
				items = append(items, templates.Link{
					Name: rec.Name(),
					Path: recordPath(rec.ID.String()),
				})
				break
			}
		}
	}
	h.sortLinks(items)
	heading := "Organizations by role: " + role
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    heading,
		Fragment: templates.IndexPage(heading, items),
	})
}

func (h handlers) handleSchemeTree(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	recs, err := h.deps.Catalog.List(ctx, "scheme")
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	names := make(map[string]string, len(recs))
	children := make(map[string][]string)
	var roots []string
	for _, rec := range recs {
		if rec.Annulled() {
			continue
		}
		idStr := rec.ID.String()
		names[idStr] = rec.Name()
		rels, err := h.deps.Catalog.Relations(ctx, idStr)
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		parents := rels["parent schemes"]
		if len(parents) == 0 {
			roots = append(roots, idStr)
			continue
		}
		for _, parent := range parents {
			children[parent] = append(children[parent], idStr)
		}
	}
	var build func(idStr string, seen map[string]bool) templates.TreeNode
	build = func(idStr string, seen map[string]bool) templates.TreeNode {
		node := templates.TreeNode{Name: names[idStr], Path: recordPath(idStr)}
		if seen[idStr] {
			return node
		}
		seen[idStr] = true
		kids := children[idStr]
		sort.SliceStable(kids, func(i, j int) bool {
			return h.coll.CompareString(names[kids[i]], names[kids[j]]) < 0
		})
		for _, kid := range kids {
			node.Children = append(node.Children, build(kid, seen))
		}
		return node
	}
	seen := make(map[string]bool)
	sort.SliceStable(roots, func(i, j int) bool {
		return h.coll.CompareString(names[roots[i]], names[roots[j]]) < 0
	})
	nodes := make([]templates.TreeNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, build(root, seen))
	}
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    "Metadata standards by hierarchy",
		Fragment: templates.TreePage("Metadata standards by hierarchy", nodes),
	})
}

func (h handlers) handleSubjectIndex(w http.ResponseWriter, r *http.Request) {
	nodes := subjectNodes(h.deps.Catalog.Thesaurus().Tree())
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    "Browse by subject",
		Fragment: templates.TreePage("Browse by subject", nodes),
	})
}

func (h handlers) handleSubject(w http.ResponseWriter, r *http.Request) {
	label := r.PathValue("label")
	thesaurus := h.deps.Catalog.Thesaurus()
	if _, ok := thesaurus.URIForLabel(label); !ok {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	ctx := httpx.RequestContext(r)
	recs, err := h.deps.Catalog.Search(ctx, `keyword="`+label+`"`)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	var items []templates.Link
	for _, rec := range recs {
		if rec.ID.Table != mscid.TableScheme {
			continue
		}
		items = append(items, templates.Link{
			Name: rec.Name(),
			Path: recordPath(rec.ID.String()),
		})
	}
	h.sortLinks(items)
	heading := "Metadata standards for " + label
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    heading,
		Fragment: templates.IndexPage(heading, items),
	})
}

func (h handlers) handleDatatypeIndex(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	recs, err := h.deps.Catalog.List(ctx, "datatype")
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	items := make([]templates.Link, 0, len(recs))
	for _, rec := range recs {
		if rec.Annulled() {
			continue
		}
		items = append(items, templates.Link{
			Name: rec.Name(),
			Path: "/datatype/" + strconv.Itoa(rec.ID.Number),
		})
	}
	h.sortLinks(items)
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    "Data types",
		Fragment: templates.IndexPage("Data types", items),
	})
}

func (h handlers) handleDatatype(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	ctx := httpx.RequestContext(r)
	idStr := mscid.ID{Table: mscid.TableDatatype, Number: number}.String()
	datatype, err := h.deps.Catalog.Get(ctx, idStr)
	if err != nil || datatype.Annulled() {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	schemes, err := h.deps.Catalog.List(ctx, "scheme")
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	var items []templates.Link
	for _, rec := range schemes {
		if rec.Annulled() {
			continue
		}
		for _, dt := range docStrings(rec.Data, "dataTypes") {
			if dt == idStr {
				items = append(items, templates.Link{
					Name: rec.Name(),
					Path: recordPath(rec.ID.String()),
				})
				break
			}
		}
	}
	h.sortLinks(items)
	heading := "Metadata standards for data type " + datatype.Name()
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    heading,
		Fragment: templates.IndexPage(heading, items),
	})
}

func subjectPath(label string) string {
	return "/subject/" + url.PathEscape(label)
}
