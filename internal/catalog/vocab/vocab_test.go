package vocab

import (
	"testing"

	"github.com/mscwg/catalog/internal/errors"
)

const (
	hydrologyURI   = "http://rdamsc.bath.ac.uk/thesaurus/subdomain235"
	scienceURI     = "http://rdamsc.bath.ac.uk/thesaurus/domain2"
	groundwaterURI = "http://vocabularies.unesco.org/thesaurus/concept4011"
)

func load(t *testing.T) *Thesaurus {
	t.Helper()
	th, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return th
}

func TestLoadAncestry(t *testing.T) {
	th := load(t)
	term, ok := th.Get(groundwaterURI)
	if !ok {
		t.Fatalf("Get(%s) missing", groundwaterURI)
	}
	if term.Label != "Groundwater" {
		t.Errorf("label = %q, want %q", term.Label, "Groundwater")
	}
	want := []string{scienceURI, hydrologyURI}
	if len(term.Ancestry) != len(want) {
		t.Fatalf("ancestry = %v, want %v", term.Ancestry, want)
	}
	for i, uri := range want {
		if term.Ancestry[i] != uri {
			t.Errorf("ancestry[%d] = %q, want %q", i, term.Ancestry[i], uri)
		}
	}
}

func TestBranch(t *testing.T) {
	th := load(t)
	branch, err := th.Branch(hydrologyURI)
	if err != nil {
		t.Fatalf("Branch() error: %v", err)
	}
	got := make(map[string]bool, len(branch))
	for _, uri := range branch {
		got[uri] = true
	}
	for _, uri := range []string{scienceURI, hydrologyURI, groundwaterURI} {
		if !got[uri] {
			t.Errorf("branch missing %s; got %v", uri, branch)
		}
	}
	if got["http://rdamsc.bath.ac.uk/thesaurus/domain1"] {
		t.Error("branch includes an unrelated domain")
	}

	_, err = th.Branch("http://rdamsc.bath.ac.uk/thesaurus/nope")
	if !errors.IsCode(err, errors.CodeTermNotFound) {
		t.Errorf("Branch(unknown) error = %v, want CodeTermNotFound", err)
	}
}

func TestLabels(t *testing.T) {
	th := load(t)
	if got := th.LongLabel(groundwaterURI); got != "Groundwater < Hydrology < Science" {
		t.Errorf("LongLabel = %q", got)
	}
	uri, ok := th.URIForLabel("hydrology")
	if !ok || uri != hydrologyURI {
		t.Errorf("URIForLabel(hydrology) = %q, %v", uri, ok)
	}
}

func TestConcept(t *testing.T) {
	th := load(t)
	concept, err := th.Concept(hydrologyURI)
	if err != nil {
		t.Fatalf("Concept() error: %v", err)
	}
	if concept["@id"] != hydrologyURI {
		t.Errorf("@id = %v", concept["@id"])
	}
	broader, _ := concept["skos:broader"].([]any)
	if len(broader) != 1 {
		t.Fatalf("skos:broader = %v, want one entry", concept["skos:broader"])
	}
	if ref := broader[0].(map[string]any)["@id"]; ref != scienceURI {
		t.Errorf("broader = %v, want %s", ref, scienceURI)
	}
	narrower, _ := concept["skos:narrower"].([]any)
	if len(narrower) == 0 {
		t.Error("skos:narrower empty, want hydrology concepts")
	}

	root, err := th.Concept(scienceURI)
	if err != nil {
		t.Fatalf("Concept(domain) error: %v", err)
	}
	if _, ok := root["skos:topConceptOf"]; !ok {
		t.Error("domain concept missing skos:topConceptOf")
	}
}

func TestTree(t *testing.T) {
	th := load(t)
	tree := th.Tree()
	if len(tree) != 8 {
		t.Fatalf("len(Tree()) = %d, want 8 domains", len(tree))
	}
	var science *Node
	for _, n := range tree {
		if n.URI == scienceURI {
			science = n
		}
	}
	if science == nil {
		t.Fatal("science domain missing from tree")
	}
	if len(science.Children) == 0 {
		t.Error("science domain has no subdomains")
	}
}
