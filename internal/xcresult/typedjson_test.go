package xcresult

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tstr and tarr build the {"_value": ...} / {"_values": [...]} wrappers
// xcresulttool emits, keeping fixtures readable.
func tstr(v string) map[string]any {
	return map[string]any{"_value": v}
}

func tarr(items ...map[string]any) map[string]any {
	values := make([]any, len(items))
	for i, item := range items {
		values[i] = item
	}

	return map[string]any{"_values": values}
}

func TestTypedFields(t *testing.T) {
	t.Parallel()

	node := map[string]any{
		"name":     tstr("testHome"),
		"line":     tstr("42"),
		"duration": tstr("0.25"),
		"bad":      "not wrapped",
		"items":    tarr(map[string]any{"k": tstr("v")}),
		"nested":   map[string]any{"inner": tstr("x")},
	}

	if got, ok := stringField(node, "name"); !ok || got != "testHome" {
		t.Errorf("stringField: got %q, %v", got, ok)
	}

	if _, ok := stringField(node, "bad"); ok {
		t.Error("stringField must reject unwrapped values")
	}

	if _, ok := stringField(node, "missing"); ok {
		t.Error("stringField must reject missing keys")
	}

	if got, ok := intField(node, "line"); !ok || got != 42 {
		t.Errorf("intField: got %d, %v", got, ok)
	}

	if _, ok := intField(node, "name"); ok {
		t.Error("intField must reject non-numeric values")
	}

	if got, ok := doubleField(node, "duration"); !ok || got != 0.25 {
		t.Errorf("doubleField: got %v, %v", got, ok)
	}

	items := arrayField(node, "items")
	if len(items) != 1 {
		t.Fatalf("arrayField: got %d items", len(items))
	}
	if got, _ := stringField(items[0], "k"); got != "v" {
		t.Errorf("arrayField element: got %q", got)
	}

	if got := arrayField(node, "missing"); got != nil {
		t.Errorf("arrayField on missing key: got %v", got)
	}

	if nested, ok := objectField(node, "nested"); !ok {
		t.Error("objectField: not found")
	} else if got, _ := stringField(nested, "inner"); got != "x" {
		t.Errorf("objectField value: got %q", got)
	}
}

func TestParseStandardizedName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		raw      string
		expected standardizedName
		ok       bool
	}{
		{
			name:     "test_full",
			raw:      "SnapshotReport|assert-1|snapshot|home-light",
			expected: standardizedName{assertID: "assert-1", kind: "snapshot", label: "home-light"},
			ok:       true,
		},
		{
			name:     "test_empty_label",
			raw:      "SnapshotReport|assert-1|manifest|",
			expected: standardizedName{assertID: "assert-1", kind: "manifest"},
			ok:       true,
		},
		{name: "test_wrong_prefix", raw: "Other|a|b|c"},
		{name: "test_too_few_parts", raw: "SnapshotReport|a|b"},
		{name: "test_too_many_parts", raw: "SnapshotReport|a|b|c|d"},
		{name: "test_plain_name", raw: "reference"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(
			tc.name, func(t *testing.T) {
				t.Parallel()

				got, ok := parseStandardizedName(tc.raw)
				if ok != tc.ok {
					t.Fatalf("ok: got %v, want %v", ok, tc.ok)
				}

				if diff := cmp.Diff(tc.expected, got, cmp.AllowUnexported(standardizedName{})); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			},
		)
	}
}

func TestMapStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Success", expected: "passed"},
		{in: "success", expected: "passed"},
		{in: "Failure", expected: "failed"},
		{in: "Skipped", expected: "skipped"},
		{in: "Expected Failure", expected: "failed"},
		{in: "", expected: "failed"},
	}

	for _, tc := range testCases {
		if got := mapStatus(tc.in); got != tc.expected {
			t.Errorf("mapStatus(%q): got %q, want %q", tc.in, got, tc.expected)
		}
	}
}
