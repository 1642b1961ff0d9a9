// Package vocab holds the subject thesaurus used for record keywords: a
// tree of domains, subdomains and concepts with SKOS output for the API.
package vocab

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mscwg/catalog/internal/errors"
)

// SchemeURI identifies the thesaurus as a whole.
const SchemeURI = "http://rdamsc.bath.ac.uk/thesaurus"

// SchemeLabel is the thesaurus display name.
const SchemeLabel = "RDA MSC Thesaurus"

//go:embed terms.json
var seedData []byte

// Term is one thesaurus entry. Ancestry lists the URIs from the domain
// down to the direct parent.
type Term struct {
	URI      string   `json:"uri"`
	Label    string   `json:"label"`
	Ancestry []string `json:"ancestry,omitempty"`
}

// Node is a term with its children, for tree rendering.
type Node struct {
	Term
	Children []*Node
}

// Thesaurus indexes terms by URI and by label.
type Thesaurus struct {
	terms    map[string]Term
	byLabel  map[string]string
	children map[string][]string
	roots    []string
}

type seedFile struct {
	Terms []struct {
		URI     string `json:"uri"`
		Label   string `json:"label"`
		Broader string `json:"broader,omitempty"`
	} `json:"terms"`
}

// Load builds the thesaurus from the embedded seed.
func Load() (*Thesaurus, error) {
	var seed seedFile
	if err := json.Unmarshal(seedData, &seed); err != nil {
		return nil, fmt.Errorf("parse thesaurus seed: %w", err)
	}
	broader := make(map[string]string, len(seed.Terms))
	labels := make(map[string]string, len(seed.Terms))
	for _, t := range seed.Terms {
		broader[t.URI] = t.Broader
		labels[t.URI] = t.Label
	}
	terms := make([]Term, 0, len(seed.Terms))
	for _, t := range seed.Terms {
		ancestry, err := ancestryOf(t.URI, broader)
		if err != nil {
			return nil, err
		}
		terms = append(terms, Term{URI: t.URI, Label: t.Label, Ancestry: ancestry})
	}
	return New(terms), nil
}

func ancestryOf(uri string, broader map[string]string) ([]string, error) {
	var chain []string
	for parent := broader[uri]; parent != ""; parent = broader[parent] {
		if len(chain) > len(broader) {
			return nil, fmt.Errorf("thesaurus term %s has a broader cycle", uri)
		}
		chain = append([]string{parent}, chain...)
	}
	return chain, nil
}

// New builds a thesaurus from terms with ancestry already resolved.
func New(terms []Term) *Thesaurus {
	th := &Thesaurus{
		terms:    make(map[string]Term, len(terms)),
		byLabel:  make(map[string]string, len(terms)),
		children: make(map[string][]string),
	}
	for _, t := range terms {
		th.terms[t.URI] = t
		th.byLabel[strings.ToLower(t.Label)] = t.URI
		if len(t.Ancestry) == 0 {
			th.roots = append(th.roots, t.URI)
			continue
		}
		parent := t.Ancestry[len(t.Ancestry)-1]
		th.children[parent] = append(th.children[parent], t.URI)
	}
	sort.Strings(th.roots)
	for _, siblings := range th.children {
		sort.Strings(siblings)
	}
	return th
}

// Get returns the term for a URI.
func (th *Thesaurus) Get(uri string) (Term, bool) {
	t, ok := th.terms[uri]
	return t, ok
}

// Has reports whether a URI names a term.
func (th *Thesaurus) Has(uri string) bool {
	_, ok := th.terms[uri]
	return ok
}

// Label returns the display label for a URI, or the empty string.
func (th *Thesaurus) Label(uri string) string {
	return th.terms[uri].Label
}

// LongLabel renders a term with its ancestry, narrowest first:
// "Hydrology < Science".
func (th *Thesaurus) LongLabel(uri string) string {
	t, ok := th.terms[uri]
	if !ok {
		return ""
	}
	parts := []string{t.Label}
	for i := len(t.Ancestry) - 1; i >= 0; i-- {
		parts = append(parts, th.terms[t.Ancestry[i]].Label)
	}
	return strings.Join(parts, " < ")
}

// URIForLabel resolves a term label, case-insensitively.
func (th *Thesaurus) URIForLabel(label string) (string, bool) {
	uri, ok := th.byLabel[strings.ToLower(strings.TrimSpace(label))]
	return uri, ok
}

// Branch returns the term's ancestry, the term itself and every
// descendant. Keyword searches match against whole branches.
func (th *Thesaurus) Branch(uri string) ([]string, error) {
	t, ok := th.terms[uri]
	if !ok {
		return nil, errors.New(errors.CodeTermNotFound,
			fmt.Sprintf("no such thesaurus term: %q", uri))
	}
	branch := append([]string{}, t.Ancestry...)
	branch = append(branch, uri)
	branch = append(branch, th.descendants(uri)...)
	return branch, nil
}

func (th *Thesaurus) descendants(uri string) []string {
	var out []string
	for _, child := range th.children[uri] {
		out = append(out, child)
		out = append(out, th.descendants(child)...)
	}
	return out
}

// Terms returns every term sorted by URI.
func (th *Thesaurus) Terms() []Term {
	out := make([]Term, 0, len(th.terms))
	for _, t := range th.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Tree returns the domain hierarchy for rendering.
func (th *Thesaurus) Tree() []*Node {
	nodes := make([]*Node, 0, len(th.roots))
	for _, root := range th.roots {
		nodes = append(nodes, th.subtree(root))
	}
	return nodes
}

func (th *Thesaurus) subtree(uri string) *Node {
	node := &Node{Term: th.terms[uri]}
	for _, child := range th.children[uri] {
		node.Children = append(node.Children, th.subtree(child))
	}
	return node
}

// Concept renders a term as a SKOS JSON-LD concept for the API.
func (th *Thesaurus) Concept(uri string) (map[string]any, error) {
	t, ok := th.terms[uri]
	if !ok {
		return nil, errors.New(errors.CodeTermNotFound,
			fmt.Sprintf("no such thesaurus term: %q", uri))
	}
	concept := map[string]any{
		"@context": map[string]any{
			"skos": "http://www.w3.org/2004/02/skos/core#",
		},
		"@id":   uri,
		"@type": "skos:Concept",
		"skos:prefLabel": []any{
			map[string]any{"@value": t.Label, "@language": "en"},
		},
		"skos:inScheme": map[string]any{"@id": SchemeURI},
	}
	if len(t.Ancestry) > 0 {
		parent := t.Ancestry[len(t.Ancestry)-1]
		concept["skos:broader"] = []any{map[string]any{"@id": parent}}
	} else {
		concept["skos:topConceptOf"] = map[string]any{"@id": SchemeURI}
	}
	if children := th.children[uri]; len(children) > 0 {
		narrower := make([]any, 0, len(children))
		for _, child := range children {
			narrower = append(narrower, map[string]any{"@id": child})
		}
		concept["skos:narrower"] = narrower
	}
	return concept, nil
}
