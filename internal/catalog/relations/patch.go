package relations

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/mscid"
)

// PatchOp is one JSON Patch operation over a relation set. Supported paths
// are /predicate for whole lists and /predicate/- or /predicate/N for
// single entries.
type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// FieldError reports a validation failure with a JSONPath-style location.
type FieldError struct {
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Resolver checks whether an MSC ID names an existing, non-annulled record
// and returns its parsed form.
type Resolver func(id string) (mscid.ID, bool)

var patchPathPattern = regexp.MustCompile(`^/([^/]+)(?:/(-|\d+))?$`)

var knownOps = []string{"add", "remove", "replace", "test"}

// ApplyPatch validates ops against doc and applies them to a copy. The
// patch is atomic: any error leaves doc untouched and is reported with its
// op index. acceptable maps each usable predicate to the table its objects
// must come from; self is the record the relation set belongs to.
func ApplyPatch(doc map[string][]string, ops []PatchOp, acceptable map[string]mscid.Table, self string, resolve Resolver) ([]FieldError, map[string][]string) {
	out := make(map[string][]string, len(doc))
	for p, objects := range doc {
		out[p] = append([]string(nil), objects...)
	}

	var errs []FieldError
	for i, op := range ops {
		for _, e := range applyOp(out, op, acceptable, self, resolve) {
			errs = append(errs, FieldError{
				Message:  e.Message,
				Location: fmt.Sprintf("$[%d]%s", i, e.Location),
			})
		}
	}
	if errs != nil {
		return errs, doc
	}
	return nil, out
}

func applyOp(out map[string][]string, op PatchOp, acceptable map[string]mscid.Table, self string, resolve Resolver) []FieldError {
	var errs []FieldError

	if op.Op == "" {
		errs = append(errs, FieldError{Message: "JSON object must have an 'op' member."})
	} else if !contains(knownOps, op.Op) {
		errs = append(errs, FieldError{
			Message:  fmt.Sprintf("Supported operations are %s.", strings.Join(knownOps, ", ")),
			Location: ".op",
		})
	}

	var predicate, index string
	if op.Path == "" {
		errs = append(errs, FieldError{Message: "JSON object must have a 'path' member."})
	} else {
		m := patchPathPattern.FindStringSubmatch(op.Path)
		if m == nil {
			errs = append(errs, FieldError{Message: "The supplied path could not be parsed.", Location: ".path"})
		} else {
			predicate, index = m[1], m[2]
			if _, ok := acceptable[predicate]; !ok {
				errs = append(errs, FieldError{
					Message:  fmt.Sprintf("Invalid predicate: %s. Valid predicates: %s.", predicate, joinKeys(acceptable)),
					Location: ".path",
				})
			} else if op.Op != "" && index != "" {
				current := out[predicate]
				if op.Op == "add" {
					if index != "-" {
						if n, _ := strconv.Atoi(index); n > len(current) {
							errs = append(errs, FieldError{Message: "Cannot add a value at that position.", Location: ".path"})
						}
					}
				} else if len(current) == 0 {
					errs = append(errs, FieldError{Message: "No values exist at that position.", Location: ".path"})
				} else if index != "-" {
					if n, _ := strconv.Atoi(index); n >= len(current) {
						errs = append(errs, FieldError{Message: "No value exists at that position.", Location: ".path"})
					}
				}
			}
		}
	}

	if op.Op != "" && op.Op != "remove" && op.Value == nil {
		errs = append(errs, FieldError{
			Message: fmt.Sprintf("JSON object must have a 'value' member when 'op' is %s.", op.Op),
		})
	}

	if errs != nil {
		return errs
	}

	switch op.Op {
	case "test":
		return applyTest(out, op, predicate, index)
	case "remove":
		if index == "" {
			if _, ok := out[predicate]; !ok {
				return []FieldError{{Message: "Predicate already missing.", Location: ".path"}}
			}
			delete(out, predicate)
			return nil
		}
		current := out[predicate]
		i := len(current) - 1
		if index != "-" {
			i, _ = strconv.Atoi(index)
		}
		current = append(current[:i], current[i+1:]...)
		if len(current) == 0 {
			delete(out, predicate)
		} else {
			out[predicate] = current
		}
		return nil
	case "add", "replace":
		return applyWrite(out, op, predicate, index, acceptable, self, resolve)
	}
	return nil
}

func applyTest(out map[string][]string, op PatchOp, predicate, index string) []FieldError {
	var current any
	if index == "" {
		if objects, ok := out[predicate]; ok {
			current = objects
		}
	} else {
		objects := out[predicate]
		if index == "-" {
			current = objects[len(objects)-1]
		} else {
			i, _ := strconv.Atoi(index)
			current = objects[i]
		}
	}
	var want any
	if err := json.Unmarshal(op.Value, &want); err != nil {
		return []FieldError{{Message: "Could not parse value.", Location: ".value"}}
	}
	if !valuesEqual(current, want) {
		return []FieldError{{
			Message:  fmt.Sprintf("Test failed. Current value would be %v.", current),
			Location: ".value",
		}}
	}
	return nil
}

func applyWrite(out map[string][]string, op PatchOp, predicate, index string, acceptable map[string]mscid.Table, self string, resolve Resolver) []FieldError {
	if index == "" {
		var values []string
		if err := json.Unmarshal(op.Value, &values); err != nil {
			return []FieldError{{Message: "Value must be a list of MSC IDs.", Location: ".value"}}
		}
		if op.Op == "replace" {
			if _, ok := out[predicate]; !ok {
				return []FieldError{{Message: "Predicate needs to be added.", Location: ".path"}}
			}
		}
		errs, clean := ValidateRelList(values, predicate, acceptable[predicate], self, resolve)
		if errs != nil {
			for i := range errs {
				errs[i].Location = ".value" + errs[i].Location
			}
			return errs
		}
		out[predicate] = clean
		return nil
	}

	var value string
	if err := json.Unmarshal(op.Value, &value); err != nil {
		return []FieldError{{Message: "Value must be a single MSC ID.", Location: ".value"}}
	}
	errs, clean := ValidateRelList([]string{value}, predicate, acceptable[predicate], self, resolve)
	if errs != nil {
		for i := range errs {
			errs[i].Location = ".value"
		}
		return errs
	}
	current := out[predicate]
	i := len(current)
	if index != "-" {
		i, _ = strconv.Atoi(index)
	}
	if op.Op == "replace" {
		if index == "-" {
			i = len(current) - 1
		}
		current[i] = clean[0]
	} else {
		if i >= len(current) {
			current = append(current, clean[0])
		} else {
			current = append(current[:i], append([]string{clean[0]}, current[i:]...)...)
		}
		out[predicate] = current
	}
	return nil
}

// ValidateRelList checks a list of MSC IDs for use with a predicate that
// accepts records from the given table. Duplicates are dropped silently.
func ValidateRelList(ids []string, predicate string, table mscid.Table, self string, resolve Resolver) ([]FieldError, []string) {
	var errs []FieldError
	var clean []string
	for i, raw := range ids {
		if contains(clean, raw) {
			continue
		}
		if raw == self {
			errs = append(errs, FieldError{
				Message:  "Cannot associate a record with itself.",
				Location: fmt.Sprintf("[%d]", i),
			})
			continue
		}
		id, ok := resolve(raw)
		if !ok {
			if _, err := mscid.Parse(raw); err != nil {
				errs = append(errs, FieldError{
					Message:  fmt.Sprintf("Not a valid MSC ID: %s.", raw),
					Location: fmt.Sprintf("[%d]", i),
				})
			} else {
				errs = append(errs, FieldError{
					Message:  fmt.Sprintf("No such record: %s.", raw),
					Location: fmt.Sprintf("[%d]", i),
				})
			}
			continue
		}
		if table != "" && id.Table != table {
			errs = append(errs, FieldError{
				Message:  fmt.Sprintf("The record %s cannot be used with the predicate %s.", raw, predicate),
				Location: fmt.Sprintf("[%d]", i),
			})
			continue
		}
		clean = append(clean, raw)
	}
	return errs, clean
}

// ValidateRelRecord checks a complete relation set against the acceptable
// predicates for a record. Returns errors and the cleaned set.
func ValidateRelRecord(input map[string][]string, acceptable map[string]mscid.Table, self string, resolve Resolver) ([]FieldError, map[string][]string) {
	var errs []FieldError
	clean := make(map[string][]string)
	for predicate, ids := range input {
		table, ok := acceptable[predicate]
		if !ok {
			errs = append(errs, FieldError{
				Message:  fmt.Sprintf("Invalid predicate: %s. Valid predicates: %s.", predicate, joinKeys(acceptable)),
				Location: fmt.Sprintf("$.%s", predicate),
			})
			continue
		}
		listErrs, cleanList := ValidateRelList(ids, predicate, table, self, resolve)
		if listErrs != nil {
			for _, e := range listErrs {
				errs = append(errs, FieldError{
					Message:  e.Message,
					Location: fmt.Sprintf("$.%s%s", predicate, e.Location),
				})
			}
			continue
		}
		if cleanList != nil {
			clean[predicate] = cleanList
		}
	}
	return errs, clean
}

func valuesEqual(current any, want any) bool {
	switch w := want.(type) {
	case string:
		c, ok := current.(string)
		return ok && c == w
	case []any:
		c, ok := current.([]string)
		if !ok || len(c) != len(w) {
			return false
		}
		for i := range w {
			s, ok := w[i].(string)
			if !ok || s != c[i] {
				return false
			}
		}
		return true
	case nil:
		return current == nil
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func joinKeys(m map[string]mscid.Table) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
