package relations

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/mscwg/catalog/internal/catalog/mscid"
)

type memStore struct {
	rels map[string]map[string][]string
}

func newMemStore() *memStore {
	return &memStore{rels: make(map[string]map[string][]string)}
}

func (s *memStore) Relations(_ context.Context, subject string) (map[string][]string, error) {
	return s.rels[subject], nil
}

func (s *memStore) AllRelations(_ context.Context) (map[string]map[string][]string, error) {
	return s.rels, nil
}

func (s *memStore) PutRelations(_ context.Context, subject string, rels map[string][]string) error {
	if len(rels) == 0 {
		delete(s.rels, subject)
		return nil
	}
	s.rels[subject] = rels
	return nil
}

func seedGraph(t *testing.T) (*Graph, *memStore) {
	t.Helper()
	store := newMemStore()
	store.rels["msc:e1"] = map[string][]string{
		"endorsed schemes": {"msc:m1", "msc:m2"},
		"originators":      {"msc:g1"},
	}
	store.rels["msc:c2"] = map[string][]string{
		"input schemes":  {"msc:m1"},
		"output schemes": {"msc:m2"},
		"maintainers":    {"msc:g1"},
	}
	store.rels["msc:m1"] = map[string][]string{
		"funders": {"msc:g1"},
	}
	store.rels["msc:m2"] = map[string][]string{
		"parent schemes": {"msc:m1"},
		"users":          {"msc:g1"},
	}
	store.rels["msc:t1"] = map[string][]string{
		"supported schemes": {"msc:m3"},
	}
	return NewGraph(store), store
}

func TestInverseLabel(t *testing.T) {
	tests := []struct {
		predicate string
		subject   mscid.Table
		want      string
	}{
		{"parent schemes", mscid.TableScheme, "child schemes"},
		{"supported schemes", mscid.TableTool, "tools"},
		{"input schemes", mscid.TableCrosswalk, "input to mappings"},
		{"output schemes", mscid.TableCrosswalk, "output from mappings"},
		{"endorsed schemes", mscid.TableEndorsement, "endorsements"},
		{"maintainers", mscid.TableScheme, "maintained schemes"},
		{"maintainers", mscid.TableCrosswalk, "maintained mappings"},
		{"funders", mscid.TableTool, "funded tools"},
		{"users", mscid.TableScheme, "used schemes"},
		{"originators", mscid.TableEndorsement, "endorsements"},
		{"bogus", mscid.TableScheme, ""},
	}
	for _, tc := range tests {
		if got := InverseLabel(tc.predicate, tc.subject); got != tc.want {
			t.Errorf("InverseLabel(%q, %q) = %q, want %q", tc.predicate, tc.subject, got, tc.want)
		}
	}
}

func TestInversionMapRoundTrip(t *testing.T) {
	m := InversionMap()
	if got := m["maintained schemes"]; got != "maintainers" {
		t.Fatalf("maintained schemes inverts to %q, want maintainers", got)
	}
	if got := m["funded mappings"]; got != "funders" {
		t.Fatalf("funded mappings inverts to %q, want funders", got)
	}
	if got := m["child schemes"]; got != "parent schemes" {
		t.Fatalf("child schemes inverts to %q, want parent schemes", got)
	}
}

func TestRelatedBothDirections(t *testing.T) {
	g, _ := seedGraph(t)
	ctx := context.Background()

	got, err := g.Related(ctx, "msc:m1", Both)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	want := map[string][]string{
		"funders":           {"msc:g1"},
		"child schemes":     {"msc:m2"},
		"input to mappings": {"msc:c2"},
		"endorsements":      {"msc:e1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Related(m1) = %v, want %v", got, want)
	}
}

func TestRelatedInverseOnly(t *testing.T) {
	g, _ := seedGraph(t)
	got, err := g.Related(context.Background(), "msc:g1", Inverse)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	want := map[string][]string{
		"funded schemes":      {"msc:m1"},
		"used schemes":        {"msc:m2"},
		"maintained mappings": {"msc:c2"},
		"endorsements":        {"msc:e1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Related(g1, inverse) = %v, want %v", got, want)
	}
}

func TestApplyKeepsInversesConsistent(t *testing.T) {
	g, store := seedGraph(t)
	ctx := context.Background()

	err := g.Apply(ctx, []Change{
		{Subject: "msc:m3", Predicate: "parent schemes", Object: "msc:m1", Add: true},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	inv, err := g.Related(ctx, "msc:m1", Inverse)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if !reflect.DeepEqual(inv["child schemes"], []string{"msc:m2", "msc:m3"}) {
		t.Fatalf("child schemes = %v, want [msc:m2 msc:m3]", inv["child schemes"])
	}

	err = g.Apply(ctx, []Change{
		{Subject: "msc:m3", Predicate: "parent schemes", Object: "msc:m1", Add: false},
	})
	if err != nil {
		t.Fatalf("Apply remove: %v", err)
	}
	if _, ok := store.rels["msc:m3"]; ok {
		t.Fatal("expected emptied relation record to be dropped")
	}
}

func TestApplyIdempotent(t *testing.T) {
	g, store := seedGraph(t)
	ctx := context.Background()

	changes := []Change{
		{Subject: "msc:m1", Predicate: "funders", Object: "msc:g1", Add: true},
		{Subject: "msc:m1", Predicate: "maintainers", Object: "msc:m1", Add: true},
		{Subject: "msc:m1", Predicate: "users", Object: "msc:g2", Add: false},
	}
	if err := g.Apply(ctx, changes); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := map[string][]string{"funders": {"msc:g1"}}
	if !reflect.DeepEqual(store.rels["msc:m1"], want) {
		t.Fatalf("relations = %v, want %v", store.rels["msc:m1"], want)
	}
}

func TestSubjectsAndObjects(t *testing.T) {
	g, _ := seedGraph(t)
	ctx := context.Background()

	subjects, err := g.Subjects(ctx, "funders", "msc:g1", mscid.TableScheme)
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	if !reflect.DeepEqual(subjects, []string{"msc:m1"}) {
		t.Fatalf("Subjects = %v, want [msc:m1]", subjects)
	}

	objects, err := g.Objects(ctx, "msc:e1", "endorsed schemes")
	if err != nil {
		t.Fatalf("Objects: %v", err)
	}
	if !reflect.DeepEqual(objects, []string{"msc:m1", "msc:m2"}) {
		t.Fatalf("Objects = %v, want [msc:m1 msc:m2]", objects)
	}
}

func testResolver(existing ...string) Resolver {
	set := make(map[string]bool)
	for _, id := range existing {
		set[id] = true
	}
	return func(raw string) (mscid.ID, bool) {
		id, err := mscid.Parse(raw)
		if err != nil {
			return mscid.ID{}, false
		}
		return id, set[raw]
	}
}

func TestApplyPatchAddAndRemove(t *testing.T) {
	doc := map[string][]string{"endorsed schemes": {"msc:m1"}}
	acceptable := map[string]mscid.Table{
		"endorsed schemes": mscid.TableScheme,
		"originators":      mscid.TableGroup,
	}
	resolve := testResolver("msc:m1", "msc:m2", "msc:g1")

	ops := []PatchOp{
		{Op: "add", Path: "/endorsed schemes/-", Value: json.RawMessage(`"msc:m2"`)},
		{Op: "add", Path: "/originators", Value: json.RawMessage(`["msc:g1"]`)},
		{Op: "test", Path: "/endorsed schemes/0", Value: json.RawMessage(`"msc:m1"`)},
	}
	errs, out := ApplyPatch(doc, ops, acceptable, "msc:e1", resolve)
	if errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if !reflect.DeepEqual(out["endorsed schemes"], []string{"msc:m1", "msc:m2"}) {
		t.Fatalf("endorsed schemes = %v", out["endorsed schemes"])
	}
	if !reflect.DeepEqual(out["originators"], []string{"msc:g1"}) {
		t.Fatalf("originators = %v", out["originators"])
	}

	errs, out = ApplyPatch(out, []PatchOp{{Op: "remove", Path: "/originators"}}, acceptable, "msc:e1", resolve)
	if errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if _, ok := out["originators"]; ok {
		t.Fatal("expected originators to be removed")
	}
}

func TestApplyPatchAtomicOnError(t *testing.T) {
	doc := map[string][]string{"endorsed schemes": {"msc:m1"}}
	acceptable := map[string]mscid.Table{"endorsed schemes": mscid.TableScheme}
	resolve := testResolver("msc:m1", "msc:m2")

	ops := []PatchOp{
		{Op: "add", Path: "/endorsed schemes/-", Value: json.RawMessage(`"msc:m2"`)},
		{Op: "add", Path: "/endorsed schemes/-", Value: json.RawMessage(`"msc:m99"`)},
	}
	errs, out := ApplyPatch(doc, ops, acceptable, "msc:e1", resolve)
	if errs == nil {
		t.Fatal("expected errors")
	}
	if !reflect.DeepEqual(out, doc) {
		t.Fatalf("document changed despite failing patch: %v", out)
	}
	if errs[0].Location != "$[1].value" {
		t.Fatalf("error location = %q, want $[1].value", errs[0].Location)
	}
}

func TestApplyPatchRejectsWrongTable(t *testing.T) {
	doc := map[string][]string{}
	acceptable := map[string]mscid.Table{"endorsed schemes": mscid.TableScheme}
	resolve := testResolver("msc:g1")

	ops := []PatchOp{
		{Op: "add", Path: "/endorsed schemes", Value: json.RawMessage(`["msc:g1"]`)},
	}
	errs, _ := ApplyPatch(doc, ops, acceptable, "msc:e1", resolve)
	if errs == nil {
		t.Fatal("expected error for record in wrong table")
	}
}

func TestValidateRelRecord(t *testing.T) {
	acceptable := map[string]mscid.Table{
		"endorsed schemes": mscid.TableScheme,
		"originators":      mscid.TableGroup,
	}
	resolve := testResolver("msc:m1", "msc:g1")

	errs, clean := ValidateRelRecord(map[string][]string{
		"endorsed schemes": {"msc:m1", "msc:m1"},
		"originators":      {"msc:g1"},
	}, acceptable, "msc:e1", resolve)
	if errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if !reflect.DeepEqual(clean["endorsed schemes"], []string{"msc:m1"}) {
		t.Fatalf("expected duplicate dropped, got %v", clean["endorsed schemes"])
	}

	errs, _ = ValidateRelRecord(map[string][]string{
		"parent schemes": {"msc:m1"},
	}, acceptable, "msc:e1", resolve)
	if errs == nil {
		t.Fatal("expected error for unusable predicate")
	}
}
