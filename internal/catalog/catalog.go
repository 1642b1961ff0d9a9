// Package catalog ties storage, validation, the relation graph and the
// subject thesaurus into the operations the web, API and MCP surfaces
// share.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/catalog/search"
	"github.com/mscwg/catalog/internal/catalog/storage"
	"github.com/mscwg/catalog/internal/catalog/vocab"
	"github.com/mscwg/catalog/internal/errors"
)

// Catalog exposes the record operations shared by every surface.
type Catalog struct {
	store     storage.Store
	graph     *relations.Graph
	thesaurus *vocab.Thesaurus
}

func New(store storage.Store, thesaurus *vocab.Thesaurus) *Catalog {
	return &Catalog{
		store:     store,
		graph:     relations.NewGraph(store),
		thesaurus: thesaurus,
	}
}

// Thesaurus returns the subject thesaurus.
func (c *Catalog) Thesaurus() *vocab.Thesaurus {
	return c.thesaurus
}

// Store returns the underlying store, for account management.
func (c *Catalog) Store() storage.Store {
	return c.store
}

// View is a record prepared for display: resolved name, related entities
// and conformance level.
type View struct {
	Record      records.Record
	Name        string
	Entities    []relations.Entity
	Conformance records.Level
}

func parseID(idStr string) (mscid.ID, error) {
	id, err := mscid.Parse(idStr)
	if err != nil {
		return mscid.ID{}, errors.Wrap(err, errors.CodeRecordInvalidID,
			fmt.Sprintf("not a valid MSC ID: %q", idStr))
	}
	return id, nil
}

func tableForSeries(series string) (mscid.Table, error) {
	table := mscid.TableForSeries(series)
	if table == "" {
		return "", errors.New(errors.CodeRecordInvalidSeries,
			fmt.Sprintf("no such record series: %q", series))
	}
	return table, nil
}

// Get returns one record by MSC ID string.
func (c *Catalog) Get(ctx context.Context, idStr string) (records.Record, error) {
	id, err := parseID(idStr)
	if err != nil {
		return records.Record{}, err
	}
	return c.store.GetRecord(ctx, id)
}

// Slug returns the slug assigned to a record, or "" when it has none.
func (c *Catalog) Slug(ctx context.Context, idStr string) (string, error) {
	id, err := parseID(idStr)
	if err != nil {
		return "", err
	}
	return c.store.GetSlug(ctx, id)
}

// GetBySlug returns one record by slug.
func (c *Catalog) GetBySlug(ctx context.Context, slug string) (records.Record, error) {
	return c.store.GetRecordBySlug(ctx, slug)
}

// List returns every record of a series in number order.
func (c *Catalog) List(ctx context.Context, series string) ([]records.Record, error) {
	table, err := tableForSeries(series)
	if err != nil {
		return nil, err
	}
	return c.store.ListRecords(ctx, table)
}

// ListAll returns every main-table record in catalog order: schemes,
// tools, crosswalks, groups, endorsements.
func (c *Catalog) ListAll(ctx context.Context) ([]records.Record, error) {
	var out []records.Record
	for _, table := range mscid.MainTables() {
		recs, err := c.store.ListRecords(ctx, table)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.SortKey() < out[j].ID.SortKey()
	})
	return out, nil
}

// View loads a record with its related entities, display name and
// conformance level.
func (c *Catalog) View(ctx context.Context, idStr string) (View, error) {
	rec, err := c.Get(ctx, idStr)
	if err != nil {
		return View{}, err
	}
	entities, err := c.graph.RelatedEntities(ctx, rec.ID.String())
	if err != nil {
		return View{}, err
	}
	roles := make([]string, 0, len(entities))
	for _, e := range entities {
		roles = append(roles, e.Role)
	}
	name, err := c.displayName(ctx, rec, entities)
	if err != nil {
		return View{}, err
	}
	return View{
		Record:      rec,
		Name:        name,
		Entities:    entities,
		Conformance: rec.Conformance(roles),
	}, nil
}

// displayName resolves a record's name. Crosswalks without an explicit
// name are named from their input and output schemes.
func (c *Catalog) displayName(ctx context.Context, rec records.Record, entities []relations.Entity) (string, error) {
	if rec.ID.Table != mscid.TableCrosswalk {
		return rec.Name(), nil
	}
	if name, ok := rec.Data["name"].(string); ok && name != "" {
		return name, nil
	}
	input := c.entityName(ctx, entities, "input scheme")
	output := c.entityName(ctx, entities, "output scheme")
	if input == "" || output == "" {
		return rec.Name(), nil
	}
	return input + " to " + output, nil
}

func (c *Catalog) entityName(ctx context.Context, entities []relations.Entity, role string) string {
	for _, e := range entities {
		if e.Role != role {
			continue
		}
		rec, err := c.Get(ctx, e.ID)
		if err != nil {
			return ""
		}
		return rec.Name()
	}
	return ""
}

// Save validates and writes a record. An empty idStr creates a new record
// in the series; otherwise the identified record is replaced. Validation
// problems come back as field errors with a nil ID.
func (c *Catalog) Save(ctx context.Context, idStr, series string, input map[string]any, userID string) (mscid.ID, []relations.FieldError, error) {
	var id mscid.ID
	var table mscid.Table
	creating := idStr == ""
	if creating {
		var err error
		table, err = tableForSeries(series)
		if err != nil {
			return mscid.ID{}, nil, err
		}
	} else {
		var err error
		id, err = parseID(idStr)
		if err != nil {
			return mscid.ID{}, nil, err
		}
		table = id.Table
		existing, err := c.store.GetRecord(ctx, id)
		if err != nil {
			return mscid.ID{}, nil, err
		}
		if existing.Annulled() {
			return mscid.ID{}, nil, errors.New(errors.CodeRecordAnnulled,
				fmt.Sprintf("record %s has been annulled", idStr))
		}
	}

	lookups, err := c.buildLookups(ctx)
	if err != nil {
		return mscid.ID{}, nil, err
	}
	validator := records.NewValidator(lookups)
	clean, rels, fieldErrs := validator.Validate(table, idStr, input)
	if len(fieldErrs) > 0 {
		return mscid.ID{}, fieldErrs, nil
	}
	clean = records.Cleanup(clean)
	if len(clean) == 0 && len(rels) == 0 {
		return mscid.ID{}, []relations.FieldError{{
			Message: "A record needs at least one field.",
		}}, nil
	}

	if creating {
		slug, err := c.deriveSlug(ctx, table, clean, rels)
		if err != nil {
			return mscid.ID{}, nil, err
		}
		id, err = c.store.CreateRecord(ctx, table, clean, slug, userID)
		if err != nil {
			return mscid.ID{}, nil, err
		}
	} else {
		if err := c.store.UpdateRecord(ctx, id, clean, "", userID); err != nil {
			return mscid.ID{}, nil, err
		}
	}
	if err := c.syncRelations(ctx, id, rels); err != nil {
		return mscid.ID{}, nil, err
	}
	return id, nil, nil
}

// Annul empties a record and severs its relations in both directions. The
// MSC ID stays reserved.
func (c *Catalog) Annul(ctx context.Context, idStr, userID string) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}
	return c.store.AnnulRecord(ctx, id, userID)
}

// History returns a record's change log, oldest first.
func (c *Catalog) History(ctx context.Context, idStr string) ([]storage.ChangeEntry, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	return c.store.History(ctx, id)
}

// Relations returns a record's forward relation lists.
func (c *Catalog) Relations(ctx context.Context, idStr string) (map[string][]string, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	return c.graph.Related(ctx, idStr, relations.Forward)
}

// InverseRelations returns the inverse relation lists pointing at a
// record, under their derived labels.
func (c *Catalog) InverseRelations(ctx context.Context, idStr string) (map[string][]string, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	return c.graph.Related(ctx, idStr, relations.Inverse)
}

// PatchRelations applies a JSON Patch to a record's forward relation
// lists. The patch either applies atomically or reports field errors.
func (c *Catalog) PatchRelations(ctx context.Context, idStr string, ops []relations.PatchOp) ([]relations.FieldError, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	current, err := c.graph.Related(ctx, idStr, relations.Forward)
	if err != nil {
		return nil, err
	}
	acceptable := records.ForwardPredicates(id.Table)
	fieldErrs, updated := relations.ApplyPatch(current, ops, acceptable, idStr, c.resolver(ctx))
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	changes := diffEdges(current, updated, func(predicate, object string, add bool) relations.Change {
		return relations.Change{Subject: idStr, Predicate: predicate, Object: object, Add: add}
	})
	return nil, c.graph.Apply(ctx, changes)
}

// PatchInverseRelations applies a JSON Patch to the inverse relation
// lists of a record, rewriting the forward edges on the other records.
func (c *Catalog) PatchInverseRelations(ctx context.Context, idStr string, ops []relations.PatchOp) ([]relations.FieldError, error) {
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	current, err := c.graph.Related(ctx, idStr, relations.Inverse)
	if err != nil {
		return nil, err
	}
	acceptable := records.InversePredicates(id.Table)
	fieldErrs, updated := relations.ApplyPatch(current, ops, acceptable, idStr, c.resolver(ctx))
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	predicateFor := inverseLabelPredicates(id.Table)
	changes := diffEdges(current, updated, func(label, subject string, add bool) relations.Change {
		return relations.Change{Subject: subject, Predicate: predicateFor[label], Object: idStr, Add: add}
	})
	return nil, c.graph.Apply(ctx, changes)
}

// Search parses a query and returns matching records in catalog order.
// A thesaurus:<label> term matches records tagged anywhere in that
// term's branch.
func (c *Catalog) Search(ctx context.Context, query string) ([]records.Record, error) {
	q, err := search.ParseWith(query, c.expandThesaurus)
	if err != nil {
		return nil, err
	}
	all, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []records.Record
	for _, rec := range all {
		if rec.Annulled() {
			continue
		}
		if q.Match(c.indexFields(rec)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// indexFields flattens a record for searching, with the MSC ID and
// resolved keyword labels as extra fields. A keyword indexes its ancestor
// labels too, so searching a broad subject finds narrower tags; the
// subject field carries only the direct labels and is the anchor for
// thesaurus branch matching.
func (c *Catalog) indexFields(rec records.Record) *search.DocFields {
	fields := search.NewDocFields(rec.Data)
	fields.Add("id", rec.ID.String())
	keywords, _ := rec.Data["keywords"].([]any)
	for _, raw := range keywords {
		uri, ok := raw.(string)
		if !ok {
			continue
		}
		term, ok := c.thesaurus.Get(uri)
		if !ok {
			continue
		}
		fields.Add("subject", term.Label)
		fields.Add("keyword", term.Label)
		for _, ancestor := range term.Ancestry {
			fields.Add("keyword", c.thesaurus.Label(ancestor))
		}
	}
	return fields
}

// expandThesaurus turns a thesaurus:<label> term into exact subject
// matches over the term's whole branch, so a query finds records tagged
// with the term itself or with any broader or narrower one. Unknown
// labels match nothing. Terms may also be given by URI.
func (c *Catalog) expandThesaurus(field, value string) (string, []string, bool) {
	if field != "thesaurus" {
		return "", nil, false
	}
	uri, ok := c.thesaurus.URIForLabel(value)
	if !ok {
		if !c.thesaurus.Has(value) {
			return "subject", nil, true
		}
		uri = value
	}
	branch, err := c.thesaurus.Branch(uri)
	if err != nil {
		return "subject", nil, true
	}
	labels := make([]string, 0, len(branch))
	for _, u := range branch {
		labels = append(labels, c.thesaurus.Label(u))
	}
	return "subject", labels, true
}

func (c *Catalog) resolver(ctx context.Context) relations.Resolver {
	return func(idStr string) (mscid.ID, bool) {
		id, err := mscid.Parse(idStr)
		if err != nil {
			return mscid.ID{}, false
		}
		rec, err := c.store.GetRecord(ctx, id)
		if err != nil || rec.Annulled() {
			return mscid.ID{}, false
		}
		return id, true
	}
}

// buildLookups snapshots the controlled vocabularies for one validation
// pass.
func (c *Catalog) buildLookups(ctx context.Context) (records.Lookups, error) {
	datatypes := make(map[string]bool)
	dtRecords, err := c.store.ListRecords(ctx, mscid.TableDatatype)
	if err != nil {
		return records.Lookups{}, err
	}
	for _, rec := range dtRecords {
		if !rec.Annulled() {
			datatypes[rec.ID.String()] = true
		}
	}
	locTypes, err := c.vocabTerms(ctx, mscid.TableLocation)
	if err != nil {
		return records.Lookups{}, err
	}
	entTypes, err := c.vocabTerms(ctx, mscid.TableType)
	if err != nil {
		return records.Lookups{}, err
	}
	idSchemes, err := c.vocabTerms(ctx, mscid.TableIDScheme)
	if err != nil {
		return records.Lookups{}, err
	}
	return records.Lookups{
		DatatypeIDs:   func(id string) bool { return datatypes[id] },
		LocationTypes: termChecker(locTypes),
		EntityTypes:   termChecker(entTypes),
		IDSchemes:     termChecker(idSchemes),
		ThesaurusHas:  c.thesaurus.Has,
		Resolve:       c.resolver(ctx),
	}, nil
}

// vocabTerms loads one control table as label → applicable series. An
// empty series list means the term applies everywhere.
func (c *Catalog) vocabTerms(ctx context.Context, table mscid.Table) (map[string][]string, error) {
	recs, err := c.store.ListRecords(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, rec := range recs {
		if rec.Annulled() {
			continue
		}
		label, ok := rec.Data["label"].(string)
		if !ok || label == "" {
			continue
		}
		var applies []string
		if raw, ok := rec.Data["applies"].([]any); ok {
			for _, s := range raw {
				if series, ok := s.(string); ok {
					applies = append(applies, series)
				}
			}
		}
		out[label] = applies
	}
	return out, nil
}

func termChecker(terms map[string][]string) func(series, label string) bool {
	return func(series, label string) bool {
		applies, ok := terms[label]
		if !ok {
			return false
		}
		if len(applies) == 0 {
			return true
		}
		for _, s := range applies {
			if s == series {
				return true
			}
		}
		return false
	}
}

// deriveSlug picks a slug for a new record. Crosswalks without a name are
// slugged from their input and output schemes.
func (c *Catalog) deriveSlug(ctx context.Context, table mscid.Table, clean map[string]any, rels []records.RelEntry) (string, error) {
	taken := func(slug string) bool {
		used, err := c.store.SlugTaken(ctx, slug)
		return err == nil && used
	}
	name := records.Record{ID: mscid.ID{Table: table, Number: 1}, Data: clean}.Name()
	if table != mscid.TableCrosswalk {
		return records.FileSlug(name, taken), nil
	}
	if explicit, ok := clean["name"].(string); ok && explicit != "" {
		return records.FileSlug(explicit, taken), nil
	}
	input := c.relEntryName(ctx, rels, "input scheme")
	output := c.relEntryName(ctx, rels, "output scheme")
	if input == "" || output == "" {
		return records.FileSlug(name, taken), nil
	}
	return records.CrosswalkSlug(
		records.FileSlug(input, nil),
		records.FileSlug(output, nil),
		taken,
	), nil
}

func (c *Catalog) relEntryName(ctx context.Context, rels []records.RelEntry, role string) string {
	for _, e := range rels {
		if e.Role != role {
			continue
		}
		rec, err := c.store.GetRecord(ctx, e.ID)
		if err != nil {
			return ""
		}
		return rec.Name()
	}
	return ""
}

// syncRelations reconciles the stored relation edges under the record's
// role map with the validated entries from an edit. Edges outside the
// role map are untouched.
func (c *Catalog) syncRelations(ctx context.Context, id mscid.ID, rels []records.RelEntry) error {
	self := id.String()
	desiredForward := make(map[string]map[string]bool)
	desiredInverse := make(map[string]map[string]bool)
	var changes []relations.Change
	for _, e := range rels {
		target := e.ID.String()
		if e.Direction == relations.Forward {
			if desiredForward[e.Predicate] == nil {
				desiredForward[e.Predicate] = make(map[string]bool)
			}
			desiredForward[e.Predicate][target] = true
			changes = append(changes, relations.Change{
				Subject: self, Predicate: e.Predicate, Object: target, Add: true,
			})
		} else {
			if desiredInverse[e.Predicate] == nil {
				desiredInverse[e.Predicate] = make(map[string]bool)
			}
			desiredInverse[e.Predicate][target] = true
			changes = append(changes, relations.Change{
				Subject: target, Predicate: e.Predicate, Object: self, Add: true,
			})
		}
	}

	current, err := c.graph.Related(ctx, self, relations.Both)
	if err != nil {
		return err
	}
	for _, role := range records.RoleMapFor(id.Table) {
		if role.Direction == relations.Forward {
			for _, object := range current[role.Predicate] {
				if !desiredForward[role.Predicate][object] {
					changes = append(changes, relations.Change{
						Subject: self, Predicate: role.Predicate, Object: object,
					})
				}
			}
			continue
		}
		label := relations.InverseLabel(role.Predicate, role.Accepts)
		for _, subject := range current[label] {
			if !desiredInverse[role.Predicate][subject] {
				changes = append(changes, relations.Change{
					Subject: subject, Predicate: role.Predicate, Object: self,
				})
			}
		}
	}
	return c.graph.Apply(ctx, changes)
}

// inverseLabelPredicates maps the inverse labels usable on a table back to
// their stored predicates.
func inverseLabelPredicates(table mscid.Table) map[string]string {
	out := make(map[string]string)
	for _, role := range records.RoleMapFor(table) {
		if role.Direction != relations.Inverse {
			continue
		}
		label := relations.InverseLabel(role.Predicate, role.Accepts)
		if label != "" {
			out[label] = role.Predicate
		}
	}
	return out
}

// diffEdges turns the difference between two relation maps into changes.
func diffEdges(before, after map[string][]string, change func(predicate, target string, add bool) relations.Change) []relations.Change {
	var changes []relations.Change
	for predicate, objects := range after {
		for _, object := range objects {
			if !containsString(before[predicate], object) {
				changes = append(changes, change(predicate, object, true))
			}
		}
	}
	for predicate, objects := range before {
		for _, object := range objects {
			if !containsString(after[predicate], object) {
				changes = append(changes, change(predicate, object, false))
			}
		}
	}
	return changes
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
