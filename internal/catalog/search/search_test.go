package search

import (
	"strings"
	"testing"

	"github.com/mscwg/catalog/internal/errors"
)

func schemeFields(title, description string, keywords ...string) *DocFields {
	f := NewDocFields(map[string]any{
		"title":       title,
		"description": description,
	})
	f.Add("keyword", keywords...)
	return f
}

func mustParse(t *testing.T, query string) *Query {
	t.Helper()
	q, err := Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", query, err)
	}
	return q
}

func TestMatchTerms(t *testing.T) {
	dublin := schemeFields("Dublin Core", "A simple metadata element set.")
	datacite := schemeFields("DataCite Metadata Schema", "Citation metadata for datasets.")

	tests := []struct {
		query                string
		wantDublin, wantCite bool
	}{
		{"dublin", true, false},
		{"metadata", true, true},
		{"title:metadata", false, true},
		{"title=dublin", false, false},
		{`title="dublin core"`, true, false},
		{"title:data?ite", false, true},
		{"title:d*core", true, false},
		{"dublin OR datacite", true, true},
		{"metadata AND citation", false, true},
		{"metadata NOT citation", true, false},
		{"(dublin OR datacite) AND title:schema", false, true},
		{"NOT title:dublin", false, true},
	}
	for _, tc := range tests {
		q := mustParse(t, tc.query)
		if got := q.Match(dublin); got != tc.wantDublin {
			t.Errorf("Match(dublin, %q) = %v, want %v", tc.query, got, tc.wantDublin)
		}
		if got := q.Match(datacite); got != tc.wantCite {
			t.Errorf("Match(datacite, %q) = %v, want %v", tc.query, got, tc.wantCite)
		}
	}
}

func TestMatchRange(t *testing.T) {
	old := NewDocFields(map[string]any{"issued": "2015-06"})
	recent := NewDocFields(map[string]any{"issued": "2022-01"})

	q := mustParse(t, "issued:[2014 TO 2016]")
	if !q.Match(old) {
		t.Error("2015-06 not matched by [2014 TO 2016]")
	}
	if q.Match(recent) {
		t.Error("2022-01 matched by [2014 TO 2016]")
	}
}

func TestMatchEscapes(t *testing.T) {
	f := NewDocFields(map[string]any{"title": "what? a title"})
	if !mustParse(t, `title:what\?`).Match(f) {
		t.Error(`escaped ? not treated literally`)
	}
	other := NewDocFields(map[string]any{"title": "whatX a title"})
	if mustParse(t, `title:what\?`).Match(other) {
		t.Error(`escaped ? matched as wildcard`)
	}
}

func TestMatchNestedValues(t *testing.T) {
	f := NewDocFields(map[string]any{
		"locations": []any{
			map[string]any{"url": "https://example.com/spec", "type": "document"},
		},
	})
	if !mustParse(t, "locations:example.com").Match(f) {
		t.Error("nested location URL not indexed under its top-level field")
	}
}

func TestParseWithExpander(t *testing.T) {
	expand := func(field, value string) (string, []string, bool) {
		if field != "subject" {
			return "", nil, false
		}
		if value == "Science" {
			return "keyword", []string{"Science", "Hydrology"}, true
		}
		return "keyword", nil, true
	}

	tagged := schemeFields("GWML", "", "Hydrology")
	plain := schemeFields("Dublin Core", "")

	q, err := ParseWith("subject:Science", expand)
	if err != nil {
		t.Fatalf("ParseWith error: %v", err)
	}
	if !q.Match(tagged) {
		t.Error("expanded term did not match a listed value")
	}
	if q.Match(plain) {
		t.Error("expanded term matched a record with no keywords")
	}

	// An expansion with no values matches nothing.
	q, err = ParseWith("subject:Alchemy", expand)
	if err != nil {
		t.Fatalf("ParseWith error: %v", err)
	}
	if q.Match(tagged) {
		t.Error("empty expansion matched")
	}

	// Fields the expander declines are matched as written.
	q, err = ParseWith("title:dublin", expand)
	if err != nil {
		t.Fatalf("ParseWith error: %v", err)
	}
	if !q.Match(plain) {
		t.Error("unexpanded field term did not match")
	}
}

func TestParseErrors(t *testing.T) {
	malformedQueries := []string{
		`title:"unbalanced`,
		"(dublin",
		"dublin)",
		"AND",
		"",
		`trailing\`,
		"issued:[2014 TO",
	}
	for _, query := range malformedQueries {
		_, err := Parse(query)
		if !errors.IsCode(err, errors.CodeQueryMalformed) {
			t.Errorf("Parse(%q) error = %v, want CodeQueryMalformed", query, err)
		}
	}

	_, err := Parse(strings.Repeat("a", MaxQueryLen+1))
	if !errors.IsCode(err, errors.CodeQueryTooLong) {
		t.Errorf("oversized query error = %v, want CodeQueryTooLong", err)
	}
}
