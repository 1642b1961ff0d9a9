// Package relations maintains the typed relationship edges between catalog
// records. Edges are stored once, on the subject record, under forward
// predicates; inverse views are derived on demand through the inversion map.
package relations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/mscid"
)

// Direction selects which predicates a relation query covers.
type Direction string

const (
	// Forward selects the native predicates stored in the database.
	Forward Direction = "forward"
	// Inverse selects the derived inverse predicates.
	Inverse Direction = "inverse"
	// Both selects forward and inverse predicates together.
	Both Direction = ""
)

// inversions maps each stored predicate to its inverse label. Labels with a
// %s slot take the subject's series name.
var inversions = map[string]string{
	"parent schemes":    "child schemes",
	"supported schemes": "tools",
	"input schemes":     "input to mappings",
	"output schemes":    "output from mappings",
	"endorsed schemes":  "endorsements",
	"maintainers":       "maintained %ss",
	"funders":           "funded %ss",
	"users":             "used schemes",
	"originators":       "endorsements",
}

// seriesScoped predicates invert to a label naming the subject's series.
func seriesScoped(predicate string) bool {
	return predicate == "maintainers" || predicate == "funders"
}

// InverseLabel returns the inverse label for a stored predicate, given the
// table of the subject holding the edge. Returns "" for unknown predicates.
func InverseLabel(predicate string, subject mscid.Table) string {
	label, ok := inversions[predicate]
	if !ok {
		return ""
	}
	if seriesScoped(predicate) {
		return fmt.Sprintf(label, subject.Series())
	}
	return label
}

// InversionMap maps every inverse label back to its stored predicate.
func InversionMap() map[string]string {
	m := make(map[string]string)
	for fw, iv := range inversions {
		if seriesScoped(fw) {
			for _, series := range []string{"scheme", "tool", "mapping"} {
				m[fmt.Sprintf(iv, series)] = fw
			}
			continue
		}
		m[iv] = fw
	}
	return m
}

// IsPredicate reports whether p is a stored forward predicate.
func IsPredicate(p string) bool {
	_, ok := inversions[p]
	return ok
}

// Store persists forward relation sets keyed by subject MSC ID.
type Store interface {
	Relations(ctx context.Context, subject string) (map[string][]string, error)
	AllRelations(ctx context.Context) (map[string]map[string][]string, error)
	PutRelations(ctx context.Context, subject string, rels map[string][]string) error
}

// Graph answers relation queries and applies edge changes over a Store.
type Graph struct {
	store Store
}

// NewGraph wraps a relation store.
func NewGraph(store Store) *Graph {
	return &Graph{store: store}
}

// Change describes a single edge addition or removal on a subject record.
type Change struct {
	Subject   string
	Predicate string
	Object    string
	Add       bool
}

// Apply performs a set of edge changes. Adding an existing edge or removing
// a missing one is a no-op. Predicate lists stay sorted; emptied predicates
// are dropped.
func (g *Graph) Apply(ctx context.Context, changes []Change) error {
	bySubject := make(map[string][]Change)
	var order []string
	for _, c := range changes {
		if c.Subject == c.Object {
			continue
		}
		if _, seen := bySubject[c.Subject]; !seen {
			order = append(order, c.Subject)
		}
		bySubject[c.Subject] = append(bySubject[c.Subject], c)
	}

	for _, subject := range order {
		rels, err := g.store.Relations(ctx, subject)
		if err != nil {
			return fmt.Errorf("load relations for %s: %w", subject, err)
		}
		if rels == nil {
			rels = make(map[string][]string)
		}
		for _, c := range bySubject[subject] {
			objects := rels[c.Predicate]
			idx := -1
			for i, o := range objects {
				if o == c.Object {
					idx = i
					break
				}
			}
			if c.Add {
				if idx >= 0 {
					continue
				}
				objects = append(objects, c.Object)
				sort.Slice(objects, func(i, j int) bool {
					return mscid.Less(objects[i], objects[j])
				})
				rels[c.Predicate] = objects
			} else {
				if idx < 0 {
					continue
				}
				objects = append(objects[:idx], objects[idx+1:]...)
				if len(objects) == 0 {
					delete(rels, c.Predicate)
				} else {
					rels[c.Predicate] = objects
				}
			}
		}
		if err := g.store.PutRelations(ctx, subject, rels); err != nil {
			return fmt.Errorf("save relations for %s: %w", subject, err)
		}
	}
	return nil
}

// Subjects returns the sorted MSC IDs of records holding at least one edge,
// optionally narrowed by predicate, object and subject table.
func (g *Graph) Subjects(ctx context.Context, predicate, object string, table mscid.Table) ([]string, error) {
	all, err := g.store.AllRelations(ctx)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if table != "" {
		prefix = mscid.Prefix + string(table)
	}
	seen := make(map[string]bool)
	for subject, rels := range all {
		if prefix != "" && !hasTablePrefix(subject, prefix) {
			continue
		}
		for p, objects := range rels {
			if predicate != "" && p != predicate {
				continue
			}
			if object == "" && len(objects) > 0 {
				seen[subject] = true
				break
			}
			for _, o := range objects {
				if o == object {
					seen[subject] = true
					break
				}
			}
		}
	}
	return sortedIDs(seen), nil
}

// Objects returns the sorted MSC IDs of records that appear as objects,
// optionally narrowed by subject and predicate.
func (g *Graph) Objects(ctx context.Context, subject, predicate string) ([]string, error) {
	seen := make(map[string]bool)
	collect := func(rels map[string][]string) {
		for p, objects := range rels {
			if predicate != "" && p != predicate {
				continue
			}
			for _, o := range objects {
				seen[o] = true
			}
		}
	}
	if subject != "" {
		rels, err := g.store.Relations(ctx, subject)
		if err != nil {
			return nil, err
		}
		collect(rels)
	} else {
		all, err := g.store.AllRelations(ctx)
		if err != nil {
			return nil, err
		}
		for _, rels := range all {
			collect(rels)
		}
	}
	return sortedIDs(seen), nil
}

// Related returns the predicates relating other records to id. Forward
// predicates come from id's own stored edges; inverse predicates are
// derived from edges on other subjects pointing at id.
func (g *Graph) Related(ctx context.Context, id string, direction Direction) (map[string][]string, error) {
	results := make(map[string][]string)

	if direction == Both || direction == Forward {
		rels, err := g.store.Relations(ctx, id)
		if err != nil {
			return nil, err
		}
		for p, objects := range rels {
			results[p] = append(results[p], objects...)
		}
	}

	if direction == Both || direction == Inverse {
		all, err := g.store.AllRelations(ctx)
		if err != nil {
			return nil, err
		}
		for subject, rels := range all {
			subjectID, err := mscid.Parse(subject)
			if err != nil {
				continue
			}
			for p, objects := range rels {
				label := InverseLabel(p, subjectID.Table)
				if label == "" {
					continue
				}
				for _, o := range objects {
					if o == id {
						results[label] = append(results[label], subject)
						break
					}
				}
			}
		}
	}

	for p := range results {
		objects := results[p]
		sort.Slice(objects, func(i, j int) bool {
			return mscid.Less(objects[i], objects[j])
		})
		results[p] = objects
	}
	return results, nil
}

// RelatedEntities flattens the full relation set for a record into sorted
// (role, id) pairs, converting predicates to singular roles.
func (g *Graph) RelatedEntities(ctx context.Context, id string) ([]Entity, error) {
	rels, err := g.Related(ctx, id, Both)
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(rels))
	for role := range rels {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	var entities []Entity
	for _, role := range roles {
		for _, target := range rels[role] {
			entities = append(entities, Entity{ID: target, Role: Singular(role)})
		}
	}
	return entities, nil
}

// Entity is a related record reference with its singular role label.
type Entity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Singular converts a predicate or inverse label to its singular role form.
func Singular(predicate string) string {
	return strings.TrimSuffix(predicate, "s")
}

func hasTablePrefix(id, prefix string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	rest := id[len(prefix):]
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return mscid.Less(ids[i], ids[j]) })
	return ids
}
