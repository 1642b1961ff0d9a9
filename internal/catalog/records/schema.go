package records

import (
	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/relations"
)

// FieldType names the validator applied to a schema field.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeHTML        FieldType = "html"
	TypeDate        FieldType = "date"
	TypePeriod      FieldType = "period"
	TypeURL         FieldType = "url"
	TypeURI         FieldType = "uri"
	TypeVersionID   FieldType = "versionid"
	TypeVocabID     FieldType = "vocabid"
	TypeThesaurus   FieldType = "thesaurus"
	TypeDatatypes   FieldType = "datatypes"
	TypeTypes       FieldType = "types"
	TypeSeries      FieldType = "series"
	TypeLocations   FieldType = "locations"
	TypeNamespaces  FieldType = "namespaces"
	TypeIdentifiers FieldType = "identifiers"
	TypeRelations   FieldType = "relations"
)

// Field declares how one record field is validated and how it counts
// towards the conformance level.
type Field struct {
	Type FieldType
	// Useful marks the field as needed for the useful level.
	Useful bool
	// UsefulRoles lists relation roles needed for the useful level.
	UsefulRoles []string
	// Optional fields are not needed for the complete level.
	Optional bool
	// Required fields must be present for the record to save at all.
	Required bool
	// OrUse names a field whose presence lets this one count as covered.
	OrUse string
	// OrUseRole names a relation role whose presence lets this field
	// count as covered.
	OrUseRole string
	// Sub validates each list element against a nested schema.
	Sub Schema
}

// Schema declares the fields of one record series.
type Schema map[string]Field

var creatorSchema = Schema{
	"fullName":   {Type: TypeText},
	"givenName":  {Type: TypeText},
	"familyName": {Type: TypeText},
}

var sampleSchema = Schema{
	"url":   {Type: TypeURL},
	"title": {Type: TypeText},
}

var schemeSchema = Schema{
	"title":           {Type: TypeText, Useful: true},
	"description":     {Type: TypeHTML, Useful: true},
	"citation_docs":   {Type: TypeHTML, Useful: true},
	"keywords":        {Type: TypeThesaurus, Useful: true},
	"dataTypes":       {Type: TypeDatatypes},
	"locations":       {Type: TypeLocations, Useful: true},
	"namespaces":      {Type: TypeNamespaces, Optional: true},
	"identifiers":     {Type: TypeIdentifiers, Useful: true},
	"relatedEntities": {Type: TypeRelations},
	"versions": {Sub: Schema{
		"number":      {Type: TypeVersionID},
		"title":       {Type: TypeText},
		"note":        {Type: TypeHTML},
		"issued":      {Type: TypeDate},
		"available":   {Type: TypeDate},
		"valid":       {Type: TypePeriod},
		"locations":   {Type: TypeLocations},
		"namespaces":  {Type: TypeNamespaces},
		"identifiers": {Type: TypeIdentifiers},
		"samples":     {Sub: sampleSchema},
	}},
}

var toolSchema = Schema{
	"title":           {Type: TypeText, Useful: true},
	"description":     {Type: TypeHTML, Useful: true},
	"types":           {Type: TypeTypes},
	"locations":       {Type: TypeLocations, Useful: true},
	"identifiers":     {Type: TypeIdentifiers, Useful: true},
	"creators":        {Sub: creatorSchema},
	"relatedEntities": {Type: TypeRelations},
	"versions": {Sub: Schema{
		"number":      {Type: TypeVersionID},
		"title":       {Type: TypeText},
		"note":        {Type: TypeHTML},
		"issued":      {Type: TypeDate},
		"locations":   {Type: TypeLocations},
		"identifiers": {Type: TypeIdentifiers},
	}},
}

var crosswalkSchema = Schema{
	"name":        {Type: TypeText},
	"description": {Type: TypeHTML},
	"locations":   {Type: TypeLocations, Useful: true},
	"identifiers": {Type: TypeIdentifiers, Useful: true},
	"creators":    {Sub: creatorSchema},
	"relatedEntities": {
		Type:        TypeRelations,
		UsefulRoles: []string{"input scheme", "output scheme"},
	},
	"versions": {Sub: Schema{
		"number":      {Type: TypeVersionID},
		"note":        {Type: TypeHTML},
		"issued":      {Type: TypeDate},
		"locations":   {Type: TypeLocations},
		"identifiers": {Type: TypeIdentifiers},
	}},
}

var groupSchema = Schema{
	"name":            {Type: TypeText, Useful: true},
	"description":     {Type: TypeHTML},
	"citation_docs":   {Type: TypeHTML, Useful: true},
	"types":           {Type: TypeTypes},
	"locations":       {Type: TypeLocations},
	"identifiers":     {Type: TypeIdentifiers, Useful: true},
	"relatedEntities": {Type: TypeRelations},
}

var endorsementSchema = Schema{
	"title":       {Type: TypeText, OrUseRole: "originator"},
	"description": {Type: TypeHTML, Optional: true},
	"creators":    {Sub: creatorSchema, OrUseRole: "originator"},
	"publication": {Type: TypeText, OrUseRole: "originator"},
	"issued":      {Type: TypeDate, OrUse: "valid"},
	"valid":       {Type: TypePeriod, OrUse: "issued"},
	"locations":   {Type: TypeLocations, Useful: true},
	"identifiers": {Type: TypeIdentifiers, Useful: true},
	"relatedEntities": {
		Type:        TypeRelations,
		UsefulRoles: []string{"endorsed scheme"},
	},
}

var datatypeSchema = Schema{
	"id":    {Type: TypeURL},
	"label": {Type: TypeText, Required: true},
}

// vocabTermSchema covers the location, type and id_scheme tables.
var vocabTermSchema = Schema{
	"id":      {Type: TypeVocabID, Required: true},
	"label":   {Type: TypeText, Required: true},
	"applies": {Type: TypeSeries},
}

// SchemaFor returns the schema for the given table, or nil.
func SchemaFor(table mscid.Table) Schema {
	switch table {
	case mscid.TableScheme:
		return schemeSchema
	case mscid.TableTool:
		return toolSchema
	case mscid.TableCrosswalk:
		return crosswalkSchema
	case mscid.TableGroup:
		return groupSchema
	case mscid.TableEndorsement:
		return endorsementSchema
	case mscid.TableDatatype:
		return datatypeSchema
	case mscid.TableLocation, mscid.TableType, mscid.TableIDScheme:
		return vocabTermSchema
	}
	return nil
}

// Role declares the stored predicate, direction and accepted object table
// behind a relation role offered on edit forms and in the API.
type Role struct {
	Predicate string
	Direction relations.Direction
	Accepts   mscid.Table
}

// RoleMap maps role labels to their declarations for one record series.
type RoleMap map[string]Role

var schemeRoles = RoleMap{
	"parent scheme":       {Predicate: "parent schemes", Direction: relations.Forward, Accepts: mscid.TableScheme},
	"child scheme":        {Predicate: "parent schemes", Direction: relations.Inverse, Accepts: mscid.TableScheme},
	"input to mapping":    {Predicate: "input schemes", Direction: relations.Inverse, Accepts: mscid.TableCrosswalk},
	"output from mapping": {Predicate: "output schemes", Direction: relations.Inverse, Accepts: mscid.TableCrosswalk},
	"maintainer":          {Predicate: "maintainers", Direction: relations.Forward, Accepts: mscid.TableGroup},
	"funder":              {Predicate: "funders", Direction: relations.Forward, Accepts: mscid.TableGroup},
	"user":                {Predicate: "users", Direction: relations.Forward, Accepts: mscid.TableGroup},
	"tool":                {Predicate: "supported schemes", Direction: relations.Inverse, Accepts: mscid.TableTool},
	"endorsement":         {Predicate: "endorsed schemes", Direction: relations.Inverse, Accepts: mscid.TableEndorsement},
}

var toolRoles = RoleMap{
	"supported scheme": {Predicate: "supported schemes", Direction: relations.Forward, Accepts: mscid.TableScheme},
	"maintainer":       {Predicate: "maintainers", Direction: relations.Forward, Accepts: mscid.TableGroup},
	"funder":           {Predicate: "funders", Direction: relations.Forward, Accepts: mscid.TableGroup},
}

var crosswalkRoles = RoleMap{
	"input scheme":  {Predicate: "input schemes", Direction: relations.Forward, Accepts: mscid.TableScheme},
	"output scheme": {Predicate: "output schemes", Direction: relations.Forward, Accepts: mscid.TableScheme},
	"maintainer":    {Predicate: "maintainers", Direction: relations.Forward, Accepts: mscid.TableGroup},
	"funder":        {Predicate: "funders", Direction: relations.Forward, Accepts: mscid.TableGroup},
}

var groupRoles = RoleMap{
	"maintained scheme":  {Predicate: "maintainers", Direction: relations.Inverse, Accepts: mscid.TableScheme},
	"maintained tool":    {Predicate: "maintainers", Direction: relations.Inverse, Accepts: mscid.TableTool},
	"maintained mapping": {Predicate: "maintainers", Direction: relations.Inverse, Accepts: mscid.TableCrosswalk},
	"funded scheme":      {Predicate: "funders", Direction: relations.Inverse, Accepts: mscid.TableScheme},
	"funded tool":        {Predicate: "funders", Direction: relations.Inverse, Accepts: mscid.TableTool},
	"funded mapping":     {Predicate: "funders", Direction: relations.Inverse, Accepts: mscid.TableCrosswalk},
	"used scheme":        {Predicate: "users", Direction: relations.Inverse, Accepts: mscid.TableScheme},
	"endorsement":        {Predicate: "originators", Direction: relations.Inverse, Accepts: mscid.TableEndorsement},
}

var endorsementRoles = RoleMap{
	"endorsed scheme": {Predicate: "endorsed schemes", Direction: relations.Forward, Accepts: mscid.TableScheme},
	"originator":      {Predicate: "originators", Direction: relations.Forward, Accepts: mscid.TableGroup},
}

// RoleMapFor returns the role map for the given table, or nil.
func RoleMapFor(table mscid.Table) RoleMap {
	switch table {
	case mscid.TableScheme:
		return schemeRoles
	case mscid.TableTool:
		return toolRoles
	case mscid.TableCrosswalk:
		return crosswalkRoles
	case mscid.TableGroup:
		return groupRoles
	case mscid.TableEndorsement:
		return endorsementRoles
	}
	return nil
}

// ForwardPredicates returns the predicates a record of the given table may
// hold directly, mapped to the table each accepts.
func ForwardPredicates(table mscid.Table) map[string]mscid.Table {
	acceptable := make(map[string]mscid.Table)
	for _, role := range RoleMapFor(table) {
		if role.Direction == relations.Forward {
			acceptable[role.Predicate] = role.Accepts
		}
	}
	return acceptable
}

// InversePredicates returns the inverse labels usable on a record of the
// given table, mapped to the table each accepts.
func InversePredicates(table mscid.Table) map[string]mscid.Table {
	acceptable := make(map[string]mscid.Table)
	for _, role := range RoleMapFor(table) {
		if role.Direction != relations.Inverse {
			continue
		}
		label := relations.InverseLabel(role.Predicate, role.Accepts)
		if label != "" {
			acceptable[label] = role.Accepts
		}
	}
	return acceptable
}
