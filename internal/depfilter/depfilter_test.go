package depfilter

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Filter
	}{
		{"name only", "Newtonsoft.Json", Filter{Name: "Newtonsoft.Json"}},
		{"name with trailing colon", "Newtonsoft.Json:", Filter{Name: "Newtonsoft.Json"}},
		{"prefix version", "Newtonsoft.Json:12.0", Filter{Name: "Newtonsoft.Json", Version: "12.0"}},
		{"greater or equal", "Foo:>=4", Filter{Name: "Foo", Version: "4", Op: OpGreaterOrEqual}},
		{"greater than", "Foo:>4.1", Filter{Name: "Foo", Version: "4.1", Op: OpGreaterThan}},
		{"less or equal", "Foo:<=2.0.0", Filter{Name: "Foo", Version: "2.0.0", Op: OpLessOrEqual}},
		{"less than", "Foo:<2", Filter{Name: "Foo", Version: "2", Op: OpLessThan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

// An operator run the grammar does not recognize is kept inside the
// version literal instead of being rejected, so the filter becomes a
// prefix match that cannot fire. Pinned deliberately; change Parse and
// this test together.
func TestParseKeepsUnrecognizedOperatorPrefix(t *testing.T) {
	got := Parse("Foo:~=1.2")
	want := Filter{Name: "Foo", Version: "~=1.2", Op: OpUnspecified}
	if got != want {
		t.Fatalf("Parse = %+v, want %+v", got, want)
	}
	if got.MatchesVersion("1.2.3") {
		t.Error("an unrecognized operator prefix must not match as a range")
	}
}

func TestMatchesVersion(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		version string
		want    bool
	}{
		{"no version matches anything", "Newtonsoft.Json", "9.0.1", true},
		{"no version matches empty", "Newtonsoft.Json", "", true},
		{"prefix hit", "Newtonsoft.Json:12.0", "12.0.3", true},
		{"prefix exact", "Newtonsoft.Json:12.0", "12.0", true},
		{"prefix miss", "Newtonsoft.Json:12.0", "12.1.0", false},
		{"gte above", "Foo:>=4", "4.0.0", true},
		{"gte higher", "Foo:>=4", "5.2.0", true},
		{"gte below", "Foo:>=4", "3.9.9", false},
		{"gt boundary excluded", "Foo:>4", "4.0.0", false},
		{"gt above", "Foo:>4", "4.0.1", true},
		{"lt below", "Foo:<2", "1.9.0", true},
		{"lt boundary excluded", "Foo:<2", "2.0.0", false},
		{"lte boundary included", "Foo:<=2", "2.0.0", true},
		{"range against unparsable target", "Foo:>=4", "not-a-version", false},
		{"range against empty target", "Foo:>=4", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Parse(tt.filter)
			if got := f.MatchesVersion(tt.version); got != tt.want {
				t.Errorf("%q.MatchesVersion(%q) = %v, want %v", tt.filter, tt.version, got, tt.want)
			}
		})
	}
}

func TestMatchesNameCaseInsensitive(t *testing.T) {
	f := Parse("newtonsoft.json:12.0")
	if !f.Matches("Newtonsoft.Json", "12.0.3") {
		t.Error("name comparison should be case-insensitive")
	}
	if f.Matches("Newtonsoft.Json.Bson", "12.0.3") {
		t.Error("name comparison must be exact, not a prefix")
	}
}

func TestParseAll(t *testing.T) {
	filters := ParseAll([]string{"A", "B:>=1"})
	if len(filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(filters))
	}
	if filters[0].Name != "A" || filters[1].Op != OpGreaterOrEqual {
		t.Errorf("unexpected filters: %+v", filters)
	}
}
