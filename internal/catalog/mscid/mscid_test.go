package mscid

import (
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{"msc:m13", ID{TableScheme, 13}, false},
		{"msc:g5", ID{TableGroup, 5}, false},
		{"msc:datatype1", ID{TableDatatype, 1}, false},
		{"msc:id_scheme2", ID{TableIDScheme, 2}, false},
		{"msc:m0", ID{}, true},
		{"msc:x3", ID{}, true},
		{"m13", ID{}, true},
		{"msc:m", ID{}, true},
		{"", ID{}, true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := ID{Table: TableCrosswalk, Number: 42}
	if got := id.String(); got != "msc:c42" {
		t.Fatalf("String() = %q, want %q", got, "msc:c42")
	}
	back, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse round trip: %v", err)
	}
	if back != id {
		t.Fatalf("round trip = %+v, want %+v", back, id)
	}
}

func TestSeries(t *testing.T) {
	tests := []struct {
		table Table
		want  string
	}{
		{TableScheme, "scheme"},
		{TableGroup, "organization"},
		{TableTool, "tool"},
		{TableCrosswalk, "mapping"},
		{TableEndorsement, "endorsement"},
	}
	for _, tc := range tests {
		if got := tc.table.Series(); got != tc.want {
			t.Errorf("%q.Series() = %q, want %q", tc.table, got, tc.want)
		}
		if got := TableForSeries(tc.want); got != tc.table {
			t.Errorf("TableForSeries(%q) = %q, want %q", tc.want, got, tc.table)
		}
	}
}

func TestSortOrder(t *testing.T) {
	ids := []string{"msc:e1", "msc:g1", "msc:m10", "msc:m2", "msc:c1", "msc:t3"}
	sort.Slice(ids, func(i, j int) bool { return Less(ids[i], ids[j]) })
	want := []string{"msc:m2", "msc:m10", "msc:t3", "msc:c1", "msc:g1", "msc:e1"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", ids, want)
		}
	}
}
