// Package records holds the catalog record model: per-series schemas and
// relation role maps, document validation and cleanup, conformance
// grading, HTML sanitization and slug derivation.
package records

import (
	"github.com/mscwg/catalog/internal/catalog/mscid"
)

// Record is one catalog document with its MSC ID.
type Record struct {
	ID   mscid.ID
	Data map[string]any
}

// Name returns the record's display name, falling back to a placeholder
// when the naming field is missing. Crosswalk records without an explicit
// name are named by the caller from their input and output schemes.
func (r Record) Name() string {
	switch r.ID.Table {
	case mscid.TableScheme, mscid.TableTool, mscid.TableEndorsement:
		if title, ok := r.Data["title"].(string); ok && title != "" {
			return title
		}
	case mscid.TableGroup, mscid.TableCrosswalk:
		if name, ok := r.Data["name"].(string); ok && name != "" {
			return name
		}
	default:
		if label, ok := r.Data["label"].(string); ok && label != "" {
			return label
		}
	}
	return "Untitled " + r.ID.Table.Series()
}

// Annulled reports whether the record has been emptied.
func (r Record) Annulled() bool {
	return len(r.Data) == 0
}

// Conformance grades the record given the relation roles present on it.
func (r Record) Conformance(roles []string) Level {
	return Conformance(SchemaFor(r.ID.Table), r.Data, roles)
}

// Cleanup strips empty strings, lists and objects from a document,
// recursively. Zero numbers and false booleans are kept.
func Cleanup(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		if cleaned := cleanupValue(value); cleaned != nil {
			out[key] = cleaned
		}
	}
	if len(out) == 0 {
		return map[string]any{}
	}
	return out
}

func cleanupValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if typed == "" {
			return nil
		}
		return typed
	case map[string]any:
		cleaned := Cleanup(typed)
		if len(cleaned) == 0 {
			return nil
		}
		return cleaned
	case []any:
		out := make([]any, 0, len(typed))
		for _, elem := range typed {
			if cleaned := cleanupValue(elem); cleaned != nil {
				out = append(out, cleaned)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return value
}
