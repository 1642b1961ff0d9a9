package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/vocab"
)

func newCatalog(t *testing.T) *catalog.Catalog {
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
		{mscid.TableType, map[string]any{"id": "standards-body", "label": "standards body", "applies": []any{"organization"}}},
	}
	for _, s := range seed {
		if _, err := store.CreateRecord(ctx, s.table, s.doc, "", "seed"); err != nil {
			t.Fatalf("seed %s: %v", s.table, err)
		}
	}
	return catalog.New(store, thesaurus)
}

func saveRecord(t *testing.T, cat *catalog.Catalog, series string, input map[string]any) mscid.ID {
	t.Helper()
	id, fieldErrs, err := cat.Save(context.Background(), "", series, input, "test$editor")
	if err != nil {
		t.Fatalf("Save(%s) error: %v", series, err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("Save(%s) field errors: %v", series, fieldErrs)
	}
	return id
}

func TestSearchHandler(t *testing.T) {
	cat := newCatalog(t)
	saveRecord(t, cat, "scheme", map[string]any{"title": "Dublin Core", "description": "<p>A simple element set.</p>"})
	saveRecord(t, cat, "scheme", map[string]any{"title": "Darwin Core"})
	saveRecord(t, cat, "tool", map[string]any{"title": "Core Validator"})

	handler := searchHandler(cat)

	_, result, err := handler(context.Background(), nil, SearchInput{Query: "title:core"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}

	_, result, err = handler(context.Background(), nil, SearchInput{Query: "title:core", Series: "scheme"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("scheme Total = %d, want 2", result.Total)
	}
	for _, rec := range result.Records {
		if rec.Series != "scheme" {
			t.Errorf("series = %q, want scheme", rec.Series)
		}
	}

	if _, _, err := handler(context.Background(), nil, SearchInput{}); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestSearchHandlerLimit(t *testing.T) {
	cat := newCatalog(t)
	saveRecord(t, cat, "scheme", map[string]any{"title": "Scheme One"})
	saveRecord(t, cat, "scheme", map[string]any{"title": "Scheme Two"})

	_, result, err := searchHandler(cat)(context.Background(), nil, SearchInput{Query: "title:scheme", Limit: 1})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
}

func TestGetHandler(t *testing.T) {
	cat := newCatalog(t)
	saveRecord(t, cat, "organization", map[string]any{"name": "DCMI"})
	m1 := saveRecord(t, cat, "scheme", map[string]any{
		"title": "Dublin Core",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	_, result, err := getHandler(cat)(context.Background(), nil, GetInput{MSCID: m1.String()})
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if result.Name != "Dublin Core" || result.Series != "scheme" {
		t.Errorf("result = %+v", result)
	}
	if len(result.RelatedEntities) != 1 || result.RelatedEntities[0].ID != "msc:g1" {
		t.Errorf("RelatedEntities = %v", result.RelatedEntities)
	}

	if _, _, err := getHandler(cat)(context.Background(), nil, GetInput{MSCID: "msc:m99"}); err == nil {
		t.Error("expected an error for a missing record")
	}
}

func TestListHandler(t *testing.T) {
	cat := newCatalog(t)
	saveRecord(t, cat, "tool", map[string]any{"title": "Validator"})

	_, result, err := listHandler(cat)(context.Background(), nil, ListInput{Series: "tool"})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if result.Total != 1 || result.Records[0].MSCID != "msc:t1" {
		t.Errorf("result = %+v", result)
	}

	if _, _, err := listHandler(cat)(context.Background(), nil, ListInput{Series: "nonsense"}); err == nil {
		t.Error("expected an error for an unknown series")
	}
}

func TestThesaurusResourceHandler(t *testing.T) {
	cat := newCatalog(t)
	handler := thesaurusResourceHandler(cat)

	result, err := handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("read scheme error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("Contents = %v", result.Contents)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["@type"] != "skos:ConceptScheme" {
		t.Errorf("@type = %v", payload["@type"])
	}
	if !strings.HasPrefix(result.Contents[0].URI, vocab.SchemeURI) {
		t.Errorf("URI = %q", result.Contents[0].URI)
	}
}

func TestNewRequiresCatalog(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error without a catalog")
	}
	server, err := New(Config{Catalog: newCatalog(t)})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if server.Handler() == nil {
		t.Error("expected an HTTP handler")
	}
}
