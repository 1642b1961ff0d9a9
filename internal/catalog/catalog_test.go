package catalog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/vocab"
	"github.com/mscwg/catalog/internal/errors"
)

const groundwaterURI = "http://vocabularies.unesco.org/thesaurus/concept4011"

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	thesaurus, err := vocab.Load()
	if err != nil {
		t.Fatalf("vocab.Load() error: %v", err)
	}
	ctx := context.Background()
	seed := []struct {
		table mscid.Table
		doc   map[string]any
	}{
		{mscid.TableLocation, map[string]any{"id": "website", "label": "website"}},
		{mscid.TableLocation, map[string]any{"id": "document", "label": "document"}},
		{mscid.TableLocation, map[string]any{"id": "email", "label": "email"}},
		{mscid.TableType, map[string]any{"id": "standards-body", "label": "standards body", "applies": []any{"organization"}}},
		{mscid.TableType, map[string]any{"id": "web-application", "label": "web application", "applies": []any{"tool"}}},
		{mscid.TableIDScheme, map[string]any{"id": "doi", "label": "DOI"}},
		{mscid.TableIDScheme, map[string]any{"id": "handle", "label": "Handle"}},
		{mscid.TableIDScheme, map[string]any{"id": "ror", "label": "ROR"}},
		{mscid.TableDatatype, map[string]any{"label": "Dataset"}},
	}
	for _, s := range seed {
		if _, err := store.CreateRecord(ctx, s.table, s.doc, "", "seed"); err != nil {
			t.Fatalf("seed %s: %v", s.table, err)
		}
	}
	return New(store, thesaurus)
}

func saveRecord(t *testing.T, c *Catalog, idStr, series string, input map[string]any) mscid.ID {
	t.Helper()
	id, fieldErrs, err := c.Save(context.Background(), idStr, series, input, "test$editor")
	if err != nil {
		t.Fatalf("Save(%s) error: %v", series, err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("Save(%s) field errors: %v", series, fieldErrs)
	}
	return id
}

func TestSaveCreateAndView(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	g1 := saveRecord(t, c, "", "organization", map[string]any{
		"name":  "Dublin Core Metadata Initiative",
		"types": []any{"standards body"},
	})
	if g1.String() != "msc:g1" {
		t.Fatalf("group ID = %s, want msc:g1", g1)
	}

	m1 := saveRecord(t, c, "", "scheme", map[string]any{
		"title":       "Dublin Core",
		"description": "<p>A simple element set.</p>",
		"keywords":    []any{groundwaterURI},
		"locations": []any{
			map[string]any{"url": "https://example.com/dc", "type": "website"},
		},
		"identifiers": []any{
			map[string]any{"id": "10.1234/dc", "scheme": "DOI"},
		},
		"dataTypes": []any{"msc:datatype1"},
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	view, err := c.View(ctx, m1.String())
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
	if view.Name != "Dublin Core" {
		t.Errorf("Name = %q", view.Name)
	}
	foundMaintainer := false
	for _, e := range view.Entities {
		if e.Role == "maintainer" && e.ID == "msc:g1" {
			foundMaintainer = true
		}
	}
	if !foundMaintainer {
		t.Errorf("entities = %v, want maintainer msc:g1", view.Entities)
	}

	// The group sees the scheme back under the inverse label.
	groupView, err := c.View(ctx, "msc:g1")
	if err != nil {
		t.Fatalf("View(group) error: %v", err)
	}
	foundMaintained := false
	for _, e := range groupView.Entities {
		if e.Role == "maintained scheme" && e.ID == m1.String() {
			foundMaintained = true
		}
	}
	if !foundMaintained {
		t.Errorf("group entities = %v, want maintained scheme %s", groupView.Entities, m1)
	}

	bySlug, err := c.GetBySlug(ctx, "dublin-core")
	if err != nil {
		t.Fatalf("GetBySlug error: %v", err)
	}
	if bySlug.ID != m1 {
		t.Errorf("GetBySlug ID = %s, want %s", bySlug.ID, m1)
	}
}

func TestEndorsementConformance(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "organization", map[string]any{"name": "Standards Body"})
	saveRecord(t, c, "", "scheme", map[string]any{"title": "Scheme One"})

	e1 := saveRecord(t, c, "", "endorsement", map[string]any{
		"issued": "2020-05",
		"locations": []any{
			map[string]any{"url": "https://example.com/endorsement", "type": "document"},
		},
		"identifiers": []any{
			map[string]any{"id": "10.5555/end", "scheme": "DOI"},
		},
		"relatedEntities": []any{
			map[string]any{"id": "msc:m1", "role": "endorsed scheme"},
			map[string]any{"id": "msc:g1", "role": "originator"},
		},
	})

	view, err := c.View(ctx, e1.String())
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
	// Title, creators and publication are all stood in for by the
	// originator, and the valid period by the issue date.
	if view.Conformance != records.Complete {
		t.Errorf("conformance = %v, want complete", view.Conformance)
	}
}

func TestCrosswalkNaming(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "scheme", map[string]any{"title": "Dublin Core"})
	saveRecord(t, c, "", "scheme", map[string]any{"title": "DataCite Metadata Schema"})

	c1 := saveRecord(t, c, "", "mapping", map[string]any{
		"locations": []any{
			map[string]any{"url": "https://example.com/xsl", "type": "document"},
		},
		"relatedEntities": []any{
			map[string]any{"id": "msc:m1", "role": "input scheme"},
			map[string]any{"id": "msc:m2", "role": "output scheme"},
		},
	})

	view, err := c.View(ctx, c1.String())
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
	if view.Name != "Dublin Core to DataCite Metadata Schema" {
		t.Errorf("crosswalk name = %q", view.Name)
	}

	bySlug, err := c.GetBySlug(ctx, "dublin-core_TO_datacite-metadata-schema")
	if err != nil {
		t.Fatalf("GetBySlug error: %v", err)
	}
	if bySlug.ID != c1 {
		t.Errorf("slug resolves to %s, want %s", bySlug.ID, c1)
	}
}

func TestSaveFieldErrors(t *testing.T) {
	c := newCatalog(t)

	_, fieldErrs, err := c.Save(context.Background(), "", "scheme", map[string]any{
		"title": "Bad scheme",
		"locations": []any{
			map[string]any{"url": "no-protocol.example.com", "type": "website"},
		},
	}, "test$editor")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if len(fieldErrs) == 0 {
		t.Fatal("bad location URL accepted")
	}

	recs, err := c.List(context.Background(), "scheme")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("invalid record was stored: %v", recs)
	}
}

func TestSaveRemovesStaleRelations(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "organization", map[string]any{"name": "Group One"})
	m1 := saveRecord(t, c, "", "scheme", map[string]any{
		"title": "Scheme One",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	saveRecord(t, c, m1.String(), "", map[string]any{
		"title": "Scheme One",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "funder"},
		},
	})

	rels, err := c.Relations(ctx, m1.String())
	if err != nil {
		t.Fatalf("Relations error: %v", err)
	}
	if len(rels["maintainers"]) != 0 {
		t.Errorf("stale maintainers survived: %v", rels)
	}
	if len(rels["funders"]) != 1 || rels["funders"][0] != "msc:g1" {
		t.Errorf("funders = %v, want [msc:g1]", rels["funders"])
	}
}

func TestAnnulAndReject(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "organization", map[string]any{"name": "Group One"})
	m1 := saveRecord(t, c, "", "scheme", map[string]any{
		"title": "Scheme One",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	if err := c.Annul(ctx, m1.String(), "test$editor"); err != nil {
		t.Fatalf("Annul error: %v", err)
	}

	rec, err := c.Get(ctx, m1.String())
	if err != nil {
		t.Fatalf("Get after annul error: %v", err)
	}
	if !rec.Annulled() {
		t.Errorf("record not emptied: %v", rec.Data)
	}
	rels, err := c.Relations(ctx, m1.String())
	if err != nil {
		t.Fatalf("Relations error: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("relations survived annulment: %v", rels)
	}

	_, _, err = c.Save(ctx, m1.String(), "", map[string]any{"title": "Revived"}, "test$editor")
	if !errors.IsCode(err, errors.CodeRecordAnnulled) {
		t.Errorf("edit of annulled record error = %v, want CodeRecordAnnulled", err)
	}
}

func TestPatchRelations(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "organization", map[string]any{"name": "Group One"})
	m1 := saveRecord(t, c, "", "scheme", map[string]any{"title": "Scheme One"})

	ops := []relations.PatchOp{
		{Op: "add", Path: "/maintainers", Value: json.RawMessage(`["msc:g1"]`)},
	}
	fieldErrs, err := c.PatchRelations(ctx, m1.String(), ops)
	if err != nil {
		t.Fatalf("PatchRelations error: %v", err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("PatchRelations field errors: %v", fieldErrs)
	}
	rels, err := c.Relations(ctx, m1.String())
	if err != nil {
		t.Fatalf("Relations error: %v", err)
	}
	if len(rels["maintainers"]) != 1 || rels["maintainers"][0] != "msc:g1" {
		t.Errorf("maintainers = %v, want [msc:g1]", rels["maintainers"])
	}

	// Tools cannot be maintainers: the patch must fail atomically.
	bad := []relations.PatchOp{
		{Op: "add", Path: "/maintainers/-", Value: json.RawMessage(`"msc:m1"`)},
	}
	fieldErrs, err = c.PatchRelations(ctx, m1.String(), bad)
	if err != nil {
		t.Fatalf("PatchRelations error: %v", err)
	}
	if len(fieldErrs) == 0 {
		t.Fatal("scheme accepted as a maintainer")
	}
}

func TestPatchInverseRelations(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "organization", map[string]any{"name": "Group One"})
	m1 := saveRecord(t, c, "", "scheme", map[string]any{"title": "Scheme One"})

	ops := []relations.PatchOp{
		{Op: "add", Path: "/maintained schemes", Value: json.RawMessage(`["msc:m1"]`)},
	}
	fieldErrs, err := c.PatchInverseRelations(ctx, "msc:g1", ops)
	if err != nil {
		t.Fatalf("PatchInverseRelations error: %v", err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("PatchInverseRelations field errors: %v", fieldErrs)
	}

	// The edit lands as a forward edge on the scheme.
	rels, err := c.Relations(ctx, m1.String())
	if err != nil {
		t.Fatalf("Relations error: %v", err)
	}
	if len(rels["maintainers"]) != 1 || rels["maintainers"][0] != "msc:g1" {
		t.Errorf("maintainers = %v, want [msc:g1]", rels["maintainers"])
	}
}

func TestSearch(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	saveRecord(t, c, "", "scheme", map[string]any{
		"title":    "Dublin Core",
		"keywords": []any{groundwaterURI},
	})
	saveRecord(t, c, "", "scheme", map[string]any{
		"title": "DataCite Metadata Schema",
	})
	saveRecord(t, c, "", "tool", map[string]any{
		"title": "Dublin Core Generator",
	})

	got, err := c.Search(ctx, "title:dublin")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search(title:dublin) = %d records, want 2", len(got))
	}
	// Catalog order puts schemes before tools.
	if got[0].ID.Table != mscid.TableScheme || got[1].ID.Table != mscid.TableTool {
		t.Errorf("result order = %v, %v", got[0].ID, got[1].ID)
	}

	// A record tagged with a narrow term matches its broader subject.
	got, err = c.Search(ctx, "keyword:hydrology")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 1 || got[0].ID.String() != "msc:m1" {
		t.Errorf("Search(keyword:hydrology) = %v, want [msc:m1]", got)
	}

	_, err = c.Search(ctx, `title:"unbalanced`)
	if !errors.IsCode(err, errors.CodeQueryMalformed) {
		t.Errorf("malformed query error = %v, want CodeQueryMalformed", err)
	}
}

func TestSearchThesaurusBranch(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	scienceURI := "http://rdamsc.bath.ac.uk/thesaurus/domain2"
	broad := saveRecord(t, c, "", "scheme", map[string]any{
		"title":    "General Science Schema",
		"keywords": []any{scienceURI},
	})
	narrow := saveRecord(t, c, "", "scheme", map[string]any{
		"title":    "Groundwater Markup Language",
		"keywords": []any{groundwaterURI},
	})
	saveRecord(t, c, "", "scheme", map[string]any{
		"title": "Untagged Schema",
	})

	// A subject matches records tagged with a broader term.
	got, err := c.Search(ctx, `thesaurus:"Earth sciences"`)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 1 || got[0].ID != broad {
		t.Fatalf("Search(thesaurus:\"Earth sciences\") = %v, want [%v]", ids(got), broad)
	}

	// Hydrology reaches both directions of its branch: the broader
	// Science tag and the narrower Groundwater tag. Its sibling Earth
	// sciences must not pick up the Groundwater record.
	got, err = c.Search(ctx, "thesaurus:Hydrology")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 2 || got[0].ID != broad || got[1].ID != narrow {
		t.Fatalf("Search(thesaurus:Hydrology) = %v, want [%v %v]", ids(got), broad, narrow)
	}

	// Unknown subjects match nothing rather than erroring.
	got, err = c.Search(ctx, `thesaurus:"Alchemy"`)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search(thesaurus:\"Alchemy\") = %v, want none", ids(got))
	}

	// The word thesaurus inside a quoted value is left alone.
	got, err = c.Search(ctx, `title:"thesaurus: a guide"`)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search(title:\"thesaurus: a guide\") = %v, want none", ids(got))
	}
}

func ids(recs []records.Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID.String()
	}
	return out
}
