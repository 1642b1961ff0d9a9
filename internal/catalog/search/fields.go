package search

// DocFields adapts a record document to the Fields interface. Every string
// reachable under a top-level key is indexed under that key, so
// "locations:example.com" matches nested location URLs. Synthetic fields
// such as resolved keyword labels can be added on top.
type DocFields struct {
	byField map[string][]string
}

func NewDocFields(doc map[string]any) *DocFields {
	f := &DocFields{byField: make(map[string][]string)}
	for key, value := range doc {
		f.byField[key] = appendStrings(f.byField[key], value)
	}
	return f
}

// Add indexes extra values under a field.
func (f *DocFields) Add(field string, values ...string) {
	f.byField[field] = append(f.byField[field], values...)
}

func (f *DocFields) Values(field string) []string {
	if field != "" {
		return f.byField[field]
	}
	var all []string
	for _, values := range f.byField {
		all = append(all, values...)
	}
	return all
}

func appendStrings(dst []string, value any) []string {
	switch typed := value.(type) {
	case string:
		if typed != "" {
			dst = append(dst, typed)
		}
	case []any:
		for _, elem := range typed {
			dst = appendStrings(dst, elem)
		}
	case map[string]any:
		for _, elem := range typed {
			dst = appendStrings(dst, elem)
		}
	}
	return dst
}
