package edit

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	catalogrecords "github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

// formState carries form control values between rendering and parsing.
// Single-valued controls live in values, repeated controls in lists.
type formState struct {
	values map[string]string
	lists  map[string][]string
}

func newFormState() formState {
	return formState{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

func relFieldName(role string) string {
	return "rel_" + strings.ReplaceAll(role, " ", "_")
}

// stateFromForm captures a submitted edit form.
func stateFromForm(r *http.Request, table mscid.Table) formState {
	st := newFormState()
	if r == nil {
		return st
	}
	for _, name := range []string{
		"title", "name", "description", "citation_docs", "publication",
		"issued", "valid_start", "valid_end",
	} {
		st.values[name] = strings.TrimSpace(r.PostFormValue(name))
	}
	for _, name := range []string{
		"keywords", "dataTypes", "types",
		"location_url", "location_type",
		"namespace_prefix", "namespace_uri",
		"identifier_id", "identifier_scheme",
		"creator_name",
		"version_number", "version_issued",
	} {
		st.lists[name] = trimList(r.PostForm[name])
	}
	for role := range catalogrecords.RoleMapFor(table) {
		name := relFieldName(role)
		st.lists[name] = trimList(r.PostForm[name])
	}
	return st
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.TrimSpace(value))
	}
	return out
}

// stateFromRecord captures an existing record and its relations.
func stateFromRecord(data map[string]any, entities []relations.Entity) formState {
	st := newFormState()
	for _, name := range []string{"title", "name", "description", "citation_docs", "publication", "issued"} {
		if s, ok := data[name].(string); ok {
			st.values[name] = s
		}
	}
	if valid, ok := data["valid"].(map[string]any); ok {
		st.values["valid_start"], _ = valid["start"].(string)
		st.values["valid_end"], _ = valid["end"].(string)
	}
	st.lists["keywords"] = anyStrings(data["keywords"])
	st.lists["dataTypes"] = anyStrings(data["dataTypes"])
	st.lists["types"] = anyStrings(data["types"])
	for _, location := range anyMaps(data["locations"]) {
		st.lists["location_url"] = append(st.lists["location_url"], str(location, "url"))
		st.lists["location_type"] = append(st.lists["location_type"], str(location, "type"))
	}
	for _, namespace := range anyMaps(data["namespaces"]) {
		st.lists["namespace_prefix"] = append(st.lists["namespace_prefix"], str(namespace, "prefix"))
		st.lists["namespace_uri"] = append(st.lists["namespace_uri"], str(namespace, "uri"))
	}
	for _, identifier := range anyMaps(data["identifiers"]) {
		st.lists["identifier_id"] = append(st.lists["identifier_id"], str(identifier, "id"))
		st.lists["identifier_scheme"] = append(st.lists["identifier_scheme"], str(identifier, "scheme"))
	}
	for _, creator := range anyMaps(data["creators"]) {
		st.lists["creator_name"] = append(st.lists["creator_name"], creatorName(creator))
	}
	for _, version := range anyMaps(data["versions"]) {
		st.lists["version_number"] = append(st.lists["version_number"], str(version, "number"))
		st.lists["version_issued"] = append(st.lists["version_issued"], str(version, "issued"))
	}
	for _, entity := range entities {
		name := relFieldName(entity.Role)
		st.lists[name] = append(st.lists[name], entity.ID)
	}
	return st
}

// toInput converts form state into a record document for validation.
func (st formState) toInput(table mscid.Table) map[string]any {
	schema := catalogrecords.SchemaFor(table)
	input := make(map[string]any)
	put := func(key, value string) {
		if _, inSchema := schema[key]; inSchema && value != "" {
			input[key] = value
		}
	}
	put("title", st.values["title"])
	put("name", st.values["name"])
	put("description", st.values["description"])
	put("citation_docs", st.values["citation_docs"])
	put("publication", st.values["publication"])
	put("issued", st.values["issued"])
	if _, inSchema := schema["valid"]; inSchema {
		if start := st.values["valid_start"]; start != "" {
			valid := map[string]any{"start": start}
			if end := st.values["valid_end"]; end != "" {
				valid["end"] = end
			}
			input["valid"] = valid
		}
	}
	putList := func(key string, values []string) {
		if _, inSchema := schema[key]; !inSchema {
			return
		}
		list := make([]any, 0, len(values))
		for _, value := range values {
			if value != "" {
				list = append(list, value)
			}
		}
		if len(list) > 0 {
			input[key] = list
		}
	}
	putList("keywords", st.lists["keywords"])
	putList("dataTypes", st.lists["dataTypes"])
	putList("types", st.lists["types"])

	if _, inSchema := schema["locations"]; inSchema {
		if list := zipMaps(st.lists["location_url"], "url", st.lists["location_type"], "type"); len(list) > 0 {
			input["locations"] = list
		}
	}
	if _, inSchema := schema["namespaces"]; inSchema {
		if list := zipMaps(st.lists["namespace_uri"], "uri", st.lists["namespace_prefix"], "prefix"); len(list) > 0 {
			input["namespaces"] = list
		}
	}
	if _, inSchema := schema["identifiers"]; inSchema {
		if list := zipMaps(st.lists["identifier_id"], "id", st.lists["identifier_scheme"], "scheme"); len(list) > 0 {
			input["identifiers"] = list
		}
	}
	if _, inSchema := schema["creators"]; inSchema {
		var list []any
		for _, name := range st.lists["creator_name"] {
			if name != "" {
				list = append(list, map[string]any{"fullName": name})
			}
		}
		if len(list) > 0 {
			input["creators"] = list
		}
	}
	if _, inSchema := schema["versions"]; inSchema {
		if list := zipMaps(st.lists["version_number"], "number", st.lists["version_issued"], "issued"); len(list) > 0 {
			input["versions"] = list
		}
	}

	var related []any
	for role := range catalogrecords.RoleMapFor(table) {
		for _, id := range st.lists[relFieldName(role)] {
			if id != "" {
				related = append(related, map[string]any{"id": id, "role": role})
			}
		}
	}
	if len(related) > 0 {
		input["relatedEntities"] = related
	}
	return input
}

// zipMaps pairs two parallel value lists into keyed objects, keeping rows
// whose primary value is set.
func zipMaps(primary []string, primaryKey string, secondary []string, secondaryKey string) []any {
	var out []any
	for i, value := range primary {
		if value == "" {
			continue
		}
		entry := map[string]any{primaryKey: value}
		if i < len(secondary) && secondary[i] != "" {
			entry[secondaryKey] = secondary[i]
		}
		out = append(out, entry)
	}
	return out
}

// formKeys lists the document fields the edit form manages directly.
var formKeys = map[string]bool{
	"title":         true,
	"name":          true,
	"description":   true,
	"citation_docs": true,
	"publication":   true,
	"issued":        true,
	"valid":         true,
	"keywords":      true,
	"dataTypes":     true,
	"types":         true,
	"locations":     true,
	"namespaces":    true,
	"identifiers":   true,
	"creators":      true,
	"versions":      true,
}

// mergeInput folds a submitted form back into the stored document. The
// form shows a working subset of each record, so fields it does not
// manage, and the version and creator details it does not show, must
// survive a save.
func mergeInput(existing, input map[string]any) map[string]any {
	for key, value := range existing {
		if !formKeys[key] {
			input[key] = value
		}
	}
	if list, ok := input["versions"].([]any); ok {
		input["versions"] = mergeVersions(list, anyMaps(existing["versions"]))
	}
	if list, ok := input["creators"].([]any); ok {
		input["creators"] = mergeCreators(list, anyMaps(existing["creators"]))
	}
	return input
}

// mergeVersions keeps the stored details of each version whose number is
// unchanged. The form edits only version numbers and issue dates, so a
// matched entry starts from its stored fields and takes the submitted
// ones on top.
func mergeVersions(formList []any, existing []map[string]any) []any {
	byNumber := make(map[string]map[string]any, len(existing))
	for _, entry := range existing {
		byNumber[str(entry, "number")] = entry
	}
	out := make([]any, 0, len(formList))
	for _, item := range formList {
		entry, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		old, found := byNumber[str(entry, "number")]
		if !found {
			out = append(out, entry)
			continue
		}
		merged := make(map[string]any, len(old)+1)
		for key, value := range old {
			merged[key] = value
		}
		delete(merged, "issued")
		for key, value := range entry {
			merged[key] = value
		}
		out = append(out, merged)
	}
	return out
}

// mergeCreators keeps stored creator entries whose displayed name is
// unchanged, so given and family names survive the single-box form.
func mergeCreators(formList []any, existing []map[string]any) []any {
	byName := make(map[string]map[string]any, len(existing))
	for _, entry := range existing {
		byName[creatorName(entry)] = entry
	}
	out := make([]any, 0, len(formList))
	for _, item := range formList {
		entry, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		if old, found := byName[str(entry, "fullName")]; found {
			out = append(out, old)
			continue
		}
		out = append(out, entry)
	}
	return out
}

// creatorName renders a creator entry the way the form shows it.
func creatorName(entry map[string]any) string {
	if name := str(entry, "fullName"); name != "" {
		return name
	}
	return strings.TrimSpace(str(entry, "givenName") + " " + str(entry, "familyName"))
}

// errorFields maps validator error locations to form control names.
var errorFields = map[string]string{
	"title":         "title",
	"name":          "name",
	"description":   "description",
	"citation_docs": "citation_docs",
	"publication":   "publication",
	"issued":        "issued",
	"valid":         "valid_start",
	"keywords":      "keywords",
	"dataTypes":     "dataTypes",
	"types":         "types",
	"locations":     "location_url",
	"namespaces":    "namespace_prefix",
	"identifiers":   "identifier_id",
	"creators":      "creator_name",
	"versions":      "version_number",
}

// splitErrors sorts validator errors into per-field messages and
// form-level problems.
func splitErrors(errs []relations.FieldError) (map[string]string, []string) {
	fieldErrs := make(map[string]string)
	var problems []string
	for _, fieldErr := range errs {
		key := fieldErr.Location
		if idx := strings.IndexAny(key, "[."); idx >= 0 {
			key = key[:idx]
		}
		name, ok := errorFields[key]
		if !ok {
			problems = append(problems, fieldErr.Message)
			continue
		}
		if _, taken := fieldErrs[name]; !taken {
			fieldErrs[name] = fieldErr.Message
		}
	}
	return fieldErrs, problems
}

// vocabOptions loads controlled-vocabulary choices for a series.
type vocabOptions struct {
	keywords      []templates.Option
	dataTypes     []templates.Option
	types         []templates.Option
	locationTypes []string
	candidates    map[string][]templates.Option
}

func (h handlers) loadOptions(ctx context.Context, table mscid.Table, self string) (vocabOptions, error) {
	opts := vocabOptions{candidates: make(map[string][]templates.Option)}
	series := table.Series()

	thesaurus := h.deps.Catalog.Thesaurus()
	for _, term := range thesaurus.Terms() {
		opts.keywords = append(opts.keywords, templates.Option{
			Value: term.URI,
			Label: thesaurus.LongLabel(term.URI),
		})
	}
	sort.SliceStable(opts.keywords, func(i, j int) bool {
		return opts.keywords[i].Label < opts.keywords[j].Label
	})

	datatypes, err := h.deps.Catalog.List(ctx, "datatype")
	if err != nil {
		return opts, err
	}
	for _, rec := range datatypes {
		if rec.Annulled() {
			continue
		}
		opts.dataTypes = append(opts.dataTypes, templates.Option{
			Value: rec.ID.String(),
			Label: rec.Name(),
		})
	}

	if appliesToSeries, err := h.vocabLabels(ctx, "type", series); err != nil {
		return opts, err
	} else {
		for _, label := range appliesToSeries {
			opts.types = append(opts.types, templates.Option{Value: label, Label: label})
		}
	}
	if labels, err := h.vocabLabels(ctx, "location", series); err != nil {
		return opts, err
	} else {
		opts.locationTypes = labels
	}

	for role, def := range catalogrecords.RoleMapFor(table) {
		recs, err := h.deps.Catalog.List(ctx, def.Accepts.Series())
		if err != nil {
			return opts, err
		}
		var choices []templates.Option
		for _, rec := range recs {
			idStr := rec.ID.String()
			if rec.Annulled() || idStr == self {
				continue
			}
			choices = append(choices, templates.Option{Value: idStr, Label: rec.Name()})
		}
		sort.SliceStable(choices, func(i, j int) bool {
			return choices[i].Label < choices[j].Label
		})
		opts.candidates[role] = choices
	}
	return opts, nil
}

// vocabLabels returns the labels of a controlled-vocabulary table that
// apply to the given series.
func (h handlers) vocabLabels(ctx context.Context, vocabSeries, series string) ([]string, error) {
	recs, err := h.deps.Catalog.List(ctx, vocabSeries)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, rec := range recs {
		if rec.Annulled() {
			continue
		}
		if applies := anyStrings(rec.Data["applies"]); len(applies) > 0 && !contains(applies, series) {
			continue
		}
		if label, ok := rec.Data["label"].(string); ok && label != "" {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func anyStrings(value any) []string {
	raw, ok := value.([]any)
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

func anyMaps(value any) []map[string]any {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if entry, isMap := item.(map[string]any); isMap {
			out = append(out, entry)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
