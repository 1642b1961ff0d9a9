package edit

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

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
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{deps: deps}
}

var newHeadings = map[mscid.Table]string{
	mscid.TableScheme:      "Add a new metadata standard",
	mscid.TableGroup:       "Add a new organization",
	mscid.TableTool:        "Add a new tool",
	mscid.TableCrosswalk:   "Add a new crosswalk",
	mscid.TableEndorsement: "Add a new endorsement",
}

// parseSID splits an edit path id like "m0" or "m12" into its table and
// number. Number 0 means a new record.
func parseSID(sid string) (mscid.Table, int, bool) {
	idx := strings.IndexFunc(sid, func(r rune) bool { return r >= '0' && r <= '9' })
	if idx <= 0 {
		return "", 0, false
	}
	table := mscid.Table(sid[:idx])
	if !table.IsMain() {
		return "", 0, false
	}
	number, err := strconv.Atoi(sid[idx:])
	if err != nil || number < 0 {
		return "", 0, false
	}
	return table, number, true
}

func (h handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	table, number, ok := parseSID(r.PathValue("sid"))
	if !ok {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	ctx := httpx.RequestContext(r)

	st := newFormState()
	heading := newHeadings[table]
	conformance := ""
	self := ""
	if number > 0 {
		self = mscid.ID{Table: table, Number: number}.String()
		view, err := h.deps.Catalog.View(ctx, self)
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		if view.Record.Annulled() {
			weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
			return
		}
		st = stateFromRecord(view.Record.Data, view.Entities)
		heading = "Edit " + view.Name
		conformance = view.Conformance.String()
	}

	opts, err := h.loadOptions(ctx, table, self)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	page := h.buildPage(table, r.PathValue("sid"), heading, conformance, st, opts, nil, nil)
	_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    heading,
		Fragment: templates.EditForm(page),
	})
}

func (h handlers) handleSave(w http.ResponseWriter, r *http.Request) {
	table, number, ok := parseSID(r.PathValue("sid"))
	if !ok {
		weberror.WriteStatus(w, r, http.StatusNotFound, h.deps)
		return
	}
	if err := r.ParseForm(); err != nil {
		weberror.WriteStatus(w, r, http.StatusBadRequest, h.deps)
		return
	}
	ctx := httpx.RequestContext(r)

	userID := ""
	if h.deps.ResolveUser != nil {
		if user, signedIn := h.deps.ResolveUser(r); signedIn {
			userID = user.UserID
		}
	}

	self := ""
	if number > 0 {
		self = mscid.ID{Table: table, Number: number}.String()
	}
	st := stateFromForm(r, table)
	input := st.toInput(table)
	if self != "" {
		existing, err := h.deps.Catalog.Get(ctx, self)
		if err != nil {
			weberror.WriteError(w, r, err, h.deps)
			return
		}
		input = mergeInput(existing.Data, input)
	}

	id, fieldErrs, err := h.deps.Catalog.Save(ctx, self, table.Series(), input, userID)
	if err != nil {
		weberror.WriteError(w, r, err, h.deps)
		return
	}
	if len(fieldErrs) > 0 {
		opts, optErr := h.loadOptions(ctx, table, self)
		if optErr != nil {
			weberror.WriteError(w, r, optErr, h.deps)
			return
		}
		heading := newHeadings[table]
		if number > 0 {
			heading = "Edit record " + self
		}
		errsByField, problems := splitErrors(fieldErrs)
		page := h.buildPage(table, r.PathValue("sid"), heading, "", st, opts, errsByField, problems)
		_ = pagerender.WritePage(w, r, h.deps, pagerender.Page{
			Title:      heading,
			StatusCode: http.StatusUnprocessableEntity,
			Fragment:   templates.EditForm(page),
		})
		return
	}
	http.Redirect(w, r, "/msc/"+strings.TrimPrefix(id.String(), mscid.Prefix), http.StatusSeeOther)
}

// buildPage lays out the edit form for a series in a stable field order.
func (h handlers) buildPage(
	table mscid.Table,
	sid, heading, conformance string,
	st formState,
	opts vocabOptions,
	fieldErrs map[string]string,
	problems []string,
) templates.EditPage {
	schema := catalogrecords.SchemaFor(table)
	page := templates.EditPage{
		Heading:     heading,
		Action:      "/edit/" + sid,
		Conformance: conformance,
		Problems:    problems,
	}
	errFor := func(name string) string { return fieldErrs[name] }
	add := func(field templates.FormField) {
		field.Error = errFor(field.Name)
		page.Fields = append(page.Fields, field)
	}
	has := func(key string) bool {
		_, ok := schema[key]
		return ok
	}

	if has("title") {
		add(templates.FormField{Name: "title", Label: "Title", Kind: templates.KindText, Value: st.values["title"]})
	}
	if has("name") {
		add(templates.FormField{Name: "name", Label: "Name", Kind: templates.KindText, Value: st.values["name"]})
	}
	if has("description") {
		add(templates.FormField{
			Name: "description", Label: "Description", Kind: templates.KindTextarea,
			Value: st.values["description"],
			Hint:  "A short paragraph about the record. Simple formatting tags are kept; anything else is stripped.",
		})
	}
	if has("citation_docs") {
		add(templates.FormField{
			Name: "citation_docs", Label: "Citation documentation", Kind: templates.KindTextarea,
			Value: st.values["citation_docs"],
			Hint:  "How to cite data that conforms to this scheme.",
		})
	}
	if has("keywords") {
		add(templates.FormField{
			Name: "keywords", Label: "Subject areas", Kind: templates.KindMultiSelect,
			Options: opts.keywords, Selected: st.lists["keywords"],
		})
	}
	if has("dataTypes") {
		add(templates.FormField{
			Name: "dataTypes", Label: "Data types", Kind: templates.KindMultiSelect,
			Options: opts.dataTypes, Selected: st.lists["dataTypes"],
		})
	}
	if has("types") {
		add(templates.FormField{
			Name: "types", Label: "Types", Kind: templates.KindMultiSelect,
			Options: opts.types, Selected: st.lists["types"],
		})
	}
	if has("locations") {
		hint := "One URL per box."
		if len(opts.locationTypes) > 0 {
			hint += " Recognized location types: " + strings.Join(opts.locationTypes, ", ") + "."
		}
		add(templates.FormField{
			Name: "location_url", Label: "Location URLs", Kind: templates.KindMultiText,
			Values: st.lists["location_url"], Hint: hint,
		})
		add(templates.FormField{
			Name: "location_type", Label: "Location types", Kind: templates.KindMultiText,
			Values: st.lists["location_type"],
			Hint:   "Matched to the URLs above by position.",
		})
	}
	if has("namespaces") {
		add(templates.FormField{
			Name: "namespace_uri", Label: "Namespace URIs", Kind: templates.KindMultiText,
			Values: st.lists["namespace_uri"],
			Hint:   "Namespace URIs must end with / or #.",
		})
		add(templates.FormField{
			Name: "namespace_prefix", Label: "Namespace prefixes", Kind: templates.KindMultiText,
			Values: st.lists["namespace_prefix"],
			Hint:   "Matched to the URIs above by position.",
		})
	}
	if has("identifiers") {
		add(templates.FormField{
			Name: "identifier_id", Label: "Identifiers", Kind: templates.KindMultiText,
			Values: st.lists["identifier_id"],
			Hint:   "DOIs, Handles and ROR IDs are recognized with or without their resolver URL.",
		})
		add(templates.FormField{
			Name: "identifier_scheme", Label: "Identifier schemes", Kind: templates.KindMultiText,
			Values: st.lists["identifier_scheme"],
			Hint:   "Matched to the identifiers above by position.",
		})
	}
	if has("creators") {
		add(templates.FormField{
			Name: "creator_name", Label: "Creators", Kind: templates.KindMultiText,
			Values: st.lists["creator_name"],
		})
	}
	if has("publication") {
		add(templates.FormField{Name: "publication", Label: "Publication", Kind: templates.KindText, Value: st.values["publication"]})
	}
	if has("issued") {
		add(templates.FormField{Name: "issued", Label: "Date issued", Kind: templates.KindDate, Value: st.values["issued"]})
	}
	if has("valid") {
		add(templates.FormField{Name: "valid_start", Label: "Valid from", Kind: templates.KindDate, Value: st.values["valid_start"]})
		add(templates.FormField{Name: "valid_end", Label: "Valid until", Kind: templates.KindDate, Value: st.values["valid_end"]})
	}
	if has("versions") {
		add(templates.FormField{
			Name: "version_number", Label: "Version numbers", Kind: templates.KindMultiText,
			Values: st.lists["version_number"],
		})
		add(templates.FormField{
			Name: "version_issued", Label: "Version dates", Kind: templates.KindMultiText,
			Values: st.lists["version_issued"],
			Hint:   "Matched to the version numbers above by position.",
		})
	}

	roles := make([]string, 0)
	for role := range catalogrecords.RoleMapFor(table) {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		name := relFieldName(role)
		add(templates.FormField{
			Name:     name,
			Label:    "Related: " + role,
			Kind:     templates.KindMultiSelect,
			Options:  opts.candidates[role],
			Selected: st.lists[name],
		})
	}
	return page
}
