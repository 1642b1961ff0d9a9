package edit

import (
	"testing"

	"github.com/mscwg/catalog/internal/catalog/mscid"
)

func TestSaveKeepsVersionDetails(t *testing.T) {
	data := map[string]any{
		"title":         "Dublin Core",
		"description":   "<p>Core elements.</p>",
		"citation_docs": "<p>Cite by version.</p>",
		"locations": []any{
			map[string]any{"url": "https://example.com/spec", "type": "website"},
		},
		"versions": []any{
			map[string]any{
				"number": "1.1",
				"title":  "DCMES 1.1",
				"note":   "<p>Stable release.</p>",
				"issued": "2012-06-14",
				"locations": []any{
					map[string]any{"url": "https://example.com/1.1", "type": "document"},
				},
				"samples": []any{
					map[string]any{"title": "Worked example", "url": "https://example.com/sample"},
				},
			},
		},
	}

	// An untouched form submission must leave the document intact.
	st := stateFromRecord(data, nil)
	input := mergeInput(data, st.toInput(mscid.TableScheme))

	if got := input["citation_docs"]; got != "<p>Cite by version.</p>" {
		t.Errorf("citation_docs = %v, want kept", got)
	}
	versions, _ := input["versions"].([]any)
	if len(versions) != 1 {
		t.Fatalf("versions = %v, want one entry", versions)
	}
	version, _ := versions[0].(map[string]any)
	for _, key := range []string{"title", "note", "locations", "samples"} {
		if _, ok := version[key]; !ok {
			t.Errorf("version lost %q: %v", key, version)
		}
	}
	if got := version["issued"]; got != "2012-06-14" {
		t.Errorf("version issued = %v, want 2012-06-14", got)
	}

	// Editing a version date keeps the rest of the entry.
	st.lists["version_issued"][0] = "2020-01-01"
	input = mergeInput(data, st.toInput(mscid.TableScheme))
	versions, _ = input["versions"].([]any)
	version, _ = versions[0].(map[string]any)
	if got := version["issued"]; got != "2020-01-01" {
		t.Errorf("edited issued = %v, want 2020-01-01", got)
	}
	if got := version["title"]; got != "DCMES 1.1" {
		t.Errorf("version title after edit = %v, want kept", got)
	}
}

func TestSaveKeepsCreatorNames(t *testing.T) {
	data := map[string]any{
		"title": "Metadata Editor",
		"creators": []any{
			map[string]any{"givenName": "Ada", "familyName": "Lovelace"},
		},
	}

	st := stateFromRecord(data, nil)
	if got := st.lists["creator_name"][0]; got != "Ada Lovelace" {
		t.Fatalf("creator_name = %q, want %q", got, "Ada Lovelace")
	}

	st.lists["creator_name"] = append(st.lists["creator_name"], "Grace Hopper")
	input := mergeInput(data, st.toInput(mscid.TableTool))

	creators, _ := input["creators"].([]any)
	if len(creators) != 2 {
		t.Fatalf("creators = %v, want two entries", creators)
	}
	first, _ := creators[0].(map[string]any)
	if first["givenName"] != "Ada" || first["familyName"] != "Lovelace" {
		t.Errorf("existing creator = %v, want given and family names kept", first)
	}
	if _, ok := first["fullName"]; ok {
		t.Errorf("existing creator grew a fullName: %v", first)
	}
	second, _ := creators[1].(map[string]any)
	if second["fullName"] != "Grace Hopper" {
		t.Errorf("added creator = %v, want fullName only", second)
	}
}

func TestMergeInputDropsRemovedVersions(t *testing.T) {
	data := map[string]any{
		"title": "Dublin Core",
		"versions": []any{
			map[string]any{"number": "1.0", "note": "<p>Old.</p>"},
			map[string]any{"number": "1.1", "note": "<p>Current.</p>"},
		},
	}

	st := stateFromRecord(data, nil)
	st.lists["version_number"] = st.lists["version_number"][1:]
	st.lists["version_issued"] = st.lists["version_issued"][1:]
	input := mergeInput(data, st.toInput(mscid.TableScheme))

	versions, _ := input["versions"].([]any)
	if len(versions) != 1 {
		t.Fatalf("versions = %v, want one entry", versions)
	}
	version, _ := versions[0].(map[string]any)
	if version["number"] != "1.1" || version["note"] != "<p>Current.</p>" {
		t.Errorf("remaining version = %v, want 1.1 with its note", version)
	}
}
