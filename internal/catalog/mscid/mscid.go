// Package mscid handles catalog record identifiers of the form
// msc:<table><number>, e.g. msc:m13.
package mscid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prefix starts every catalog identifier.
const Prefix = "msc:"

// Table identifies a record table.
type Table string

// Main record tables.
const (
	TableScheme      Table = "m"
	TableGroup       Table = "g"
	TableTool        Table = "t"
	TableCrosswalk   Table = "c"
	TableEndorsement Table = "e"
)

// Controlled-vocabulary tables.
const (
	TableDatatype Table = "datatype"
	TableLocation Table = "location"
	TableType     Table = "type"
	TableIDScheme Table = "id_scheme"
)

// MainTables lists the tables holding catalog records, in display order.
func MainTables() []Table {
	return []Table{TableScheme, TableGroup, TableTool, TableCrosswalk, TableEndorsement}
}

// IsMain reports whether t is one of the main record tables.
func (t Table) IsMain() bool {
	switch t {
	case TableScheme, TableGroup, TableTool, TableCrosswalk, TableEndorsement:
		return true
	}
	return false
}

// Series returns the human-readable series name for a table.
func (t Table) Series() string {
	switch t {
	case TableScheme:
		return "scheme"
	case TableGroup:
		return "organization"
	case TableTool:
		return "tool"
	case TableCrosswalk:
		return "mapping"
	case TableEndorsement:
		return "endorsement"
	case TableDatatype:
		return "datatype"
	case TableLocation:
		return "location"
	case TableType:
		return "type"
	case TableIDScheme:
		return "id_scheme"
	}
	return ""
}

// TableForSeries returns the table with the given series name, or "".
func TableForSeries(series string) Table {
	for _, t := range []Table{
		TableScheme, TableGroup, TableTool, TableCrosswalk, TableEndorsement,
		TableDatatype, TableLocation, TableType, TableIDScheme,
	} {
		if t.Series() == series {
			return t
		}
	}
	return ""
}

// ID is a parsed catalog identifier.
type ID struct {
	Table  Table
	Number int
}

var idPattern = regexp.MustCompile(`^msc:([a-z_]+?)(\d+)$`)

// Parse converts an identifier string into an ID. It accepts main and
// vocabulary tables but rejects anything else.
func Parse(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ID{}, fmt.Errorf("not a valid MSC ID: %s", s)
	}
	table := Table(m[1])
	if !table.IsMain() {
		switch table {
		case TableDatatype, TableLocation, TableType, TableIDScheme:
		default:
			return ID{}, fmt.Errorf("not a valid MSC ID: %s", s)
		}
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return ID{}, fmt.Errorf("not a valid MSC ID: %s", s)
	}
	return ID{Table: table, Number: n}, nil
}

// String renders the identifier in msc:<table><number> form.
func (id ID) String() string {
	return fmt.Sprintf("%s%s%d", Prefix, id.Table, id.Number)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id.Table == "" || id.Number == 0
}

// tableOrder gives main tables a stable sort precedence.
var tableOrder = map[Table]int{
	TableScheme:      0,
	TableTool:        1,
	TableCrosswalk:   2,
	TableGroup:       3,
	TableEndorsement: 4,
}

// SortKey converts an ID into a numeric value so that records order first
// by table then by number.
func (id ID) SortKey() int {
	order, ok := tableOrder[id.Table]
	if !ok {
		order = 99
	}
	return order*10_000_000 + id.Number
}

// SortKeyString is like SortKey but for raw identifier strings. Strings
// that do not parse sort last, in lexical order among themselves.
func SortKeyString(s string) int {
	id, err := Parse(s)
	if err != nil {
		return 1 << 40
	}
	return id.SortKey()
}

// Less orders identifier strings for display and API output.
func Less(a, b string) bool {
	ka, kb := SortKeyString(a), SortKeyString(b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}
