package records

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/relations"
)

const (
	maxTextLen      = 65536
	maxHTMLLen      = 131072
	maxVersionIDLen = 32
	maxVocabIDLen   = 64
	maxPrefixLen    = 32
	maxMailtoLen    = 254
)

var (
	wsRun = regexp.MustCompile(`\s+`)

	// W3C-DTF date, truncated forms allowed. A day needs a month.
	datePattern = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2])(-(0[1-9]|[12]\d|3[01]))?)?$`)

	doiPattern    = regexp.MustCompile(`^(?:https?://(?:dx\.)?doi\.org/)?(10\.\d+/.+)$`)
	handlePattern = regexp.MustCompile(`^(?:https?://hdl\.handle\.net/)?(\d+\.\d+/.+)$`)
	rorPattern    = regexp.MustCompile(`^(?:https?://ror\.org/)(0[0-9a-hjkmnp-z]{6}\d\d)$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Lookups supplies the controlled vocabularies the validator checks
// values against. Nil members disable the corresponding check.
type Lookups struct {
	// DatatypeIDs reports whether an MSC ID names a known datatype.
	DatatypeIDs func(id string) bool
	// LocationTypes reports whether a location type applies to a series.
	LocationTypes func(series, locType string) bool
	// EntityTypes reports whether an entity type applies to a series.
	EntityTypes func(series, entType string) bool
	// IDSchemes reports whether an identifier scheme applies to a series.
	IDSchemes func(series, scheme string) bool
	// ThesaurusHas reports whether a keyword URI is in the thesaurus.
	ThesaurusHas func(uri string) bool
	// Resolve reports whether an MSC ID names an existing record.
	Resolve relations.Resolver
}

// RelEntry is a validated related-entity entry, resolved to the stored
// predicate and direction.
type RelEntry struct {
	ID        mscid.ID
	Role      string
	Predicate string
	Direction relations.Direction
}

// Validator checks record documents against their series schema.
type Validator struct {
	lookups Lookups
}

func NewValidator(lookups Lookups) *Validator {
	return &Validator{lookups: lookups}
}

// Validate checks input against the schema for table. It returns the
// cleaned document with the relatedEntities field split out into resolved
// relation entries, plus any field errors. self is the MSC ID of the record
// being edited, used to reject self-relations; it may be empty for new
// records.
func (v *Validator) Validate(table mscid.Table, self string, input map[string]any) (map[string]any, []RelEntry, []relations.FieldError) {
	schema := SchemaFor(table)
	if schema == nil {
		return nil, nil, []relations.FieldError{{
			Message: fmt.Sprintf("No such record series: %q.", table),
		}}
	}
	series := table.Series()
	clean := make(map[string]any)
	var rels []RelEntry
	var errs []relations.FieldError

	for _, name := range sortedFields(schema) {
		field := schema[name]
		value, present := input[name]
		if !present || value == nil {
			if field.Required {
				errs = append(errs, relations.FieldError{
					Message:  "This field is required.",
					Location: name,
				})
			}
			continue
		}
		if field.Type == TypeRelations {
			entries, relErrs := v.validateRelations(table, self, name, value)
			rels = append(rels, entries...)
			errs = append(errs, relErrs...)
			continue
		}
		cleaned, fieldErrs := v.validateField(field, series, name, value)
		errs = append(errs, fieldErrs...)
		if cleaned != nil {
			clean[name] = cleaned
		} else if field.Required {
			errs = append(errs, relations.FieldError{
				Message:  "This field is required.",
				Location: name,
			})
		}
	}
	return clean, rels, errs
}

func (v *Validator) validateField(field Field, series, loc string, value any) (any, []relations.FieldError) {
	if field.Sub != nil {
		return v.validateSubList(field.Sub, series, loc, value)
	}
	switch field.Type {
	case TypeText:
		return v.validateText(loc, value, maxTextLen)
	case TypeVersionID:
		return v.validateText(loc, value, maxVersionIDLen)
	case TypeVocabID:
		return v.validateText(loc, value, maxVocabIDLen)
	case TypeHTML:
		return v.validateHTML(loc, value)
	case TypeDate:
		return v.validateDate(loc, value)
	case TypePeriod:
		return v.validatePeriod(loc, value)
	case TypeURL:
		return v.validateURL(loc, value)
	case TypeURI:
		return v.validateURI(loc, value)
	case TypeThesaurus:
		return v.validateThesaurus(loc, value)
	case TypeDatatypes:
		return v.validateDatatypes(loc, value)
	case TypeTypes:
		return v.validateTypes(series, loc, value)
	case TypeSeries:
		return v.validateSeries(loc, value)
	case TypeLocations:
		return v.validateLocations(series, loc, value)
	case TypeNamespaces:
		return v.validateNamespaces(loc, value)
	case TypeIdentifiers:
		return v.validateIdentifiers(series, loc, value)
	}
	return nil, []relations.FieldError{{
		Message:  "Unsupported field.",
		Location: loc,
	}}
}

func (v *Validator) validateSubList(sub Schema, series, loc string, value any) (any, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{
			Message:  "Must be a list.",
			Location: loc,
		}}
	}
	var out []any
	var errs []relations.FieldError
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be an object.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		cleaned := make(map[string]any)
		for _, name := range sortedFields(sub) {
			field := sub[name]
			raw, present := obj[name]
			if !present || raw == nil {
				continue
			}
			elemLoc := fmt.Sprintf("%s[%d].%s", loc, i, name)
			value, fieldErrs := v.validateField(field, series, elemLoc, raw)
			errs = append(errs, fieldErrs...)
			if value != nil {
				cleaned[name] = value
			}
		}
		if len(cleaned) > 0 {
			out = append(out, cleaned)
		}
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateText(loc string, value any, max int) (any, []relations.FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a string.", Location: loc}}
	}
	s = truncate(collapseWhitespace(s), max)
	if s == "" {
		return nil, nil
	}
	return s, nil
}

// truncate caps a string at max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func (v *Validator) validateHTML(loc string, value any) (any, []relations.FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a string.", Location: loc}}
	}
	s = truncate(StripTags(s), maxHTMLLen)
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func (v *Validator) validateDate(loc string, value any) (any, []relations.FieldError) {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil, stringError(ok, loc)
	}
	if !datePattern.MatchString(s) {
		return nil, []relations.FieldError{{
			Message:  "Must be in yyyy, yyyy-mm, or yyyy-mm-dd format.",
			Location: loc,
		}}
	}
	return s, nil
}

func (v *Validator) validatePeriod(loc string, value any) (any, []relations.FieldError) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be an object.", Location: loc}}
	}
	var errs []relations.FieldError
	cleaned := make(map[string]any)
	for _, key := range []string{"start", "end"} {
		raw, present := obj[key]
		if !present || raw == nil {
			continue
		}
		date, dateErrs := v.validateDate(loc+"."+key, raw)
		errs = append(errs, dateErrs...)
		if date != nil {
			cleaned[key] = date
		}
	}
	start, _ := cleaned["start"].(string)
	end, _ := cleaned["end"].(string)
	if start != "" && end != "" && start > end {
		errs = append(errs, relations.FieldError{
			Message:  "Start date must precede end date.",
			Location: loc,
		})
	}
	if len(cleaned) == 0 {
		return nil, errs
	}
	return cleaned, errs
}

func (v *Validator) validateURL(loc string, value any) (any, []relations.FieldError) {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil, stringError(ok, loc)
	}
	s = strings.TrimSpace(s)
	if rest, found := strings.CutPrefix(s, "mailto:"); found {
		if len(s) > maxMailtoLen || !emailPattern.MatchString(rest) {
			return nil, []relations.FieldError{{
				Message:  "Must be a valid mailto URL.",
				Location: loc,
			}}
		}
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, []relations.FieldError{{
			Message:  "Must be a valid URL, including the protocol.",
			Location: loc,
		}}
	}
	return s, nil
}

func (v *Validator) validateURI(loc string, value any) (any, []relations.FieldError) {
	cleaned, errs := v.validateURL(loc, value)
	if cleaned == nil {
		return nil, errs
	}
	s := cleaned.(string)
	if !strings.HasSuffix(s, "/") && !strings.HasSuffix(s, "#") {
		return nil, []relations.FieldError{{
			Message:  "Namespace URIs must end with a slash or hash character.",
			Location: loc,
		}}
	}
	return s, errs
}

func (v *Validator) validateThesaurus(loc string, value any) (any, []relations.FieldError) {
	uris, errs := stringList(loc, value)
	if uris == nil {
		return nil, errs
	}
	var out []any
	seen := make(map[string]bool)
	for i, uri := range uris {
		if seen[uri] {
			continue
		}
		if v.lookups.ThesaurusHas != nil && !v.lookups.ThesaurusHas(uri) {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("No such term in the subject thesaurus: %q.", uri),
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		seen[uri] = true
		out = append(out, uri)
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateDatatypes(loc string, value any) (any, []relations.FieldError) {
	ids, errs := stringList(loc, value)
	if ids == nil {
		return nil, errs
	}
	var out []any
	seen := make(map[string]bool)
	for i, id := range ids {
		if seen[id] {
			continue
		}
		parsed, err := mscid.Parse(id)
		if err != nil || parsed.Table != mscid.TableDatatype ||
			(v.lookups.DatatypeIDs != nil && !v.lookups.DatatypeIDs(id)) {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("No such data type: %q.", id),
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateTypes(series, loc string, value any) (any, []relations.FieldError) {
	types, errs := stringList(loc, value)
	if types == nil {
		return nil, errs
	}
	var out []any
	seen := make(map[string]bool)
	for i, t := range types {
		t = collapseWhitespace(t)
		if t == "" || seen[t] {
			continue
		}
		if v.lookups.EntityTypes != nil && !v.lookups.EntityTypes(series, t) {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("Type %q does not apply to a %s record.", t, series),
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateSeries(loc string, value any) (any, []relations.FieldError) {
	names, errs := stringList(loc, value)
	if names == nil {
		return nil, errs
	}
	var out []any
	for i, name := range names {
		if mscid.TableForSeries(name) == "" {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("No such record series: %q.", name),
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateLocations(series, loc string, value any) (any, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a list.", Location: loc}}
	}
	var out []any
	var errs []relations.FieldError
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be an object.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		elemLoc := fmt.Sprintf("%s[%d]", loc, i)
		u, urlErrs := v.validateURL(elemLoc+".url", obj["url"])
		errs = append(errs, urlErrs...)
		locType, _ := obj["type"].(string)
		if v.lookups.LocationTypes != nil && locType != "" &&
			!v.lookups.LocationTypes(series, locType) {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("Location type %q does not apply to a %s record.", locType, series),
				Location: elemLoc + ".type",
			})
			continue
		}
		if u == nil || locType == "" {
			continue
		}
		out = append(out, map[string]any{"url": u, "type": locType})
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateNamespaces(loc string, value any) (any, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a list.", Location: loc}}
	}
	var out []any
	var errs []relations.FieldError
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be an object.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		elemLoc := fmt.Sprintf("%s[%d]", loc, i)
		prefix, prefixErrs := v.validateText(elemLoc+".prefix", obj["prefix"], maxPrefixLen)
		errs = append(errs, prefixErrs...)
		uri, uriErrs := v.validateURI(elemLoc+".uri", obj["uri"])
		errs = append(errs, uriErrs...)
		cleaned := make(map[string]any)
		if prefix != nil {
			cleaned["prefix"] = prefix
		}
		if uri != nil {
			cleaned["uri"] = uri
		}
		if len(cleaned) > 0 {
			out = append(out, cleaned)
		}
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

func (v *Validator) validateIdentifiers(series, loc string, value any) (any, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a list.", Location: loc}}
	}
	var out []any
	var errs []relations.FieldError
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be an object.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		elemLoc := fmt.Sprintf("%s[%d]", loc, i)
		id, _ := obj["id"].(string)
		scheme, _ := obj["scheme"].(string)
		id = collapseWhitespace(id)
		if id == "" {
			continue
		}
		if scheme != "" && v.lookups.IDSchemes != nil && !v.lookups.IDSchemes(series, scheme) {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("Identifier scheme %q does not apply to a %s record.", scheme, series),
				Location: elemLoc + ".scheme",
			})
			continue
		}
		normalized, err := normalizeIdentifier(scheme, id)
		if err != nil {
			errs = append(errs, relations.FieldError{
				Message:  err.Error(),
				Location: elemLoc + ".id",
			})
			continue
		}
		cleaned := map[string]any{"id": normalized}
		if scheme != "" {
			cleaned["scheme"] = scheme
		}
		out = append(out, cleaned)
	}
	if len(out) == 0 {
		return nil, errs
	}
	return out, errs
}

// normalizeIdentifier strips resolver URLs from DOIs and Handles, and
// expands bare ROR IDs to their full URL form.
func normalizeIdentifier(scheme, id string) (string, error) {
	switch scheme {
	case "DOI":
		m := doiPattern.FindStringSubmatch(id)
		if m == nil {
			return "", fmt.Errorf("Not a valid DOI: %q.", id)
		}
		return m[1], nil
	case "Handle":
		m := handlePattern.FindStringSubmatch(id)
		if m == nil {
			return "", fmt.Errorf("Not a valid Handle: %q.", id)
		}
		return m[1], nil
	case "ROR":
		m := rorPattern.FindStringSubmatch(strings.ToLower(id))
		if m == nil {
			m = rorPattern.FindStringSubmatch("https://ror.org/" + strings.ToLower(id))
		}
		if m == nil {
			return "", fmt.Errorf("Not a valid ROR ID: %q.", id)
		}
		return "https://ror.org/" + m[1], nil
	}
	return id, nil
}

func (v *Validator) validateRelations(table mscid.Table, self, loc string, value any) ([]RelEntry, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a list.", Location: loc}}
	}
	roleMap := RoleMapFor(table)
	var out []RelEntry
	var errs []relations.FieldError
	seen := make(map[string]bool)
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be an object.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		elemLoc := fmt.Sprintf("%s[%d]", loc, i)
		id, _ := obj["id"].(string)
		roleName, _ := obj["role"].(string)
		role, ok := roleMap[roleName]
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("Role %q does not apply to a %s record.", roleName, table.Series()),
				Location: elemLoc + ".role",
			})
			continue
		}
		parsed, err := mscid.Parse(id)
		if err != nil {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("Not a valid MSC ID: %q.", id),
				Location: elemLoc + ".id",
			})
			continue
		}
		if parsed.Table != role.Accepts {
			errs = append(errs, relations.FieldError{
				Message:  fmt.Sprintf("A %s record cannot have the role %q.", parsed.Table.Series(), roleName),
				Location: elemLoc + ".id",
			})
			continue
		}
		if id == self {
			errs = append(errs, relations.FieldError{
				Message:  "A record cannot be related to itself.",
				Location: elemLoc + ".id",
			})
			continue
		}
		if v.lookups.Resolve != nil {
			if _, ok := v.lookups.Resolve(id); !ok {
				errs = append(errs, relations.FieldError{
					Message:  fmt.Sprintf("No such record: %q.", id),
					Location: elemLoc + ".id",
				})
				continue
			}
		}
		key := roleName + "\x00" + id
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, RelEntry{
			ID:        parsed,
			Role:      roleName,
			Predicate: role.Predicate,
			Direction: role.Direction,
		})
	}
	return out, errs
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

func stringList(loc string, value any) ([]string, []relations.FieldError) {
	list, ok := value.([]any)
	if !ok {
		return nil, []relations.FieldError{{Message: "Must be a list.", Location: loc}}
	}
	out := make([]string, 0, len(list))
	var errs []relations.FieldError
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			errs = append(errs, relations.FieldError{
				Message:  "Must be a string.",
				Location: fmt.Sprintf("%s[%d]", loc, i),
			})
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, errs
}

func stringError(wasString bool, loc string) []relations.FieldError {
	if wasString {
		return nil
	}
	return []relations.FieldError{{Message: "Must be a string.", Location: loc}}
}

func sortedFields(schema Schema) []string {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
