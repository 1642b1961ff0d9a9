package records

// Level grades how fully a record document covers its schema.
type Level int

const (
	// Empty records hold no data at all, typically after annulment.
	Empty Level = iota
	// Valid records hold some data but miss fields needed for discovery.
	Valid
	// Useful records hold everything needed for catalog users.
	Useful
	// Complete records cover every non-optional field.
	Complete
)

func (l Level) String() string {
	switch l {
	case Complete:
		return "complete"
	case Useful:
		return "useful"
	case Valid:
		return "valid"
	}
	return "empty"
}

// Conformance grades a document against its schema. roles lists the
// relation roles present on the record, in both directions.
func Conformance(schema Schema, data map[string]any, roles []string) Level {
	if len(data) == 0 && len(roles) == 0 {
		return Empty
	}
	roleSet := make(map[string]bool, len(roles))
	for _, role := range roles {
		roleSet[role] = true
	}
	versions := versionList(data)

	complete := true
	useful := true
	for name, field := range schema {
		if field.OrUse != "" && hasField(data, roleSet, field.OrUse) {
			continue
		}
		if field.OrUseRole != "" && roleSet[field.OrUseRole] {
			continue
		}
		if coveredByAllVersions(name, versions) {
			continue
		}
		if len(field.UsefulRoles) > 0 {
			for _, role := range field.UsefulRoles {
				if !roleSet[role] {
					complete = false
					useful = false
					break
				}
			}
			if !useful {
				break
			}
			continue
		}
		if field.Useful {
			if !hasField(data, roleSet, name) {
				complete = false
				useful = false
				break
			}
			continue
		}
		if !field.Optional && !hasField(data, roleSet, name) {
			complete = false
		}
	}
	if complete {
		return Complete
	}
	if useful {
		return Useful
	}
	return Valid
}

// hasField reports whether a field carries content. The relatedEntities
// field lives in the relations store, so its presence is judged from the
// role list instead of the document.
func hasField(data map[string]any, roleSet map[string]bool, name string) bool {
	if name == "relatedEntities" {
		return len(roleSet) > 0
	}
	_, ok := data[name]
	return ok
}

func versionList(data map[string]any) []map[string]any {
	raw, ok := data["versions"].([]any)
	if !ok {
		return nil
	}
	versions := make([]map[string]any, 0, len(raw))
	for _, elem := range raw {
		if obj, ok := elem.(map[string]any); ok {
			versions = append(versions, obj)
		}
	}
	return versions
}

// coveredByAllVersions reports whether every version supplies the field,
// in which case the top level need not repeat it.
func coveredByAllVersions(name string, versions []map[string]any) bool {
	if len(versions) == 0 {
		return false
	}
	for _, version := range versions {
		if _, ok := version[name]; !ok {
			return false
		}
	}
	return true
}
