package hydrate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	record "github.com/hanpama/hydrograph/internal/record"
)

func TestShapeOf(t *testing.T) {
	rec := record.Record{
		"null":  nil,
		"atom":  int64(7),
		"seq":   []any{1, 2, 3},
		"empty": []any{},
		"recs":  []record.Record{{"a": 1}},
		"bytes": []byte("blob"),
	}
	cases := []struct {
		key  string
		want Shape
	}{
		{"missing", Shape{Kind: ShapeAbsent}},
		{"null", Shape{Kind: ShapeNull}},
		{"atom", Shape{Kind: ShapeAtom}},
		{"seq", Shape{Kind: ShapeCount, Count: 3}},
		{"empty", Shape{Kind: ShapeCount, Count: 0}},
		{"recs", Shape{Kind: ShapeCount, Count: 1}},
		{"bytes", Shape{Kind: ShapeAtom}},
	}
	for _, c := range cases {
		if got := shapeOf(rec, c.key); got != c.want {
			t.Errorf("shapeOf(%q) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestFlattenKey_SlotRules(t *testing.T) {
	recs := []record.Record{
		{"k": []any{"a", "b"}}, // spliced
		{"k": "c"},             // one slot
		{"k": nil},             // one placeholder slot
		{},                     // one placeholder slot
		{"k": []any{}},         // zero slots
		{"k": []any{"d"}},
	}
	flat, shapes := flattenKey(recs, "k")

	wantFlat := []any{"a", "b", "c", nil, nil, "d"}
	if diff := cmp.Diff(wantFlat, flat); diff != "" {
		t.Fatalf("flat mismatch (-want +got):\n%s", diff)
	}
	wantShapes := []Shape{
		{Kind: ShapeCount, Count: 2},
		{Kind: ShapeAtom},
		{Kind: ShapeNull},
		{Kind: ShapeAbsent},
		{Kind: ShapeCount, Count: 0},
		{Kind: ShapeCount, Count: 1},
	}
	if diff := cmp.Diff(wantShapes, shapes); diff != "" {
		t.Fatalf("shapes mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflattenKey_Consumption(t *testing.T) {
	shapes := []Shape{
		{Kind: ShapeCount, Count: 2},
		{Kind: ShapeAtom},
		{Kind: ShapeNull},
		{Kind: ShapeAbsent},
		{Kind: ShapeCount, Count: 0},
	}
	flat := []any{"a", "b", "c", nil, nil}

	parts, err := unflattenKey(flat, "k", shapes)
	if err != nil {
		t.Fatalf("unflatten: %v", err)
	}
	want := []record.Record{
		{"k": []any{"a", "b"}},
		{"k": "c"},
		{"k": nil},
		{}, // absent produces nothing
		{"k": []any{}},
	}
	if diff := cmp.Diff(want, parts); diff != "" {
		t.Fatalf("parts mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflattenKey_Exhausted(t *testing.T) {
	if _, err := unflattenKey([]any{"a"}, "k", []Shape{{Kind: ShapeCount, Count: 2}}); err == nil {
		t.Fatalf("expected error for exhausted flat values")
	}
	if _, err := unflattenKey([]any{}, "k", []Shape{{Kind: ShapeNull}}); err == nil {
		t.Fatalf("expected error: null shape still consumes a placeholder slot")
	}
}

func TestUnflattenKey_Leftover(t *testing.T) {
	if _, err := unflattenKey([]any{"a", "b"}, "k", []Shape{{Kind: ShapeAtom}}); err == nil {
		t.Fatalf("expected error for leftover flat values")
	}
}

// Round-trip law: unflatten(flatten(recs, key)) merged back onto recs
// reproduces the original records for that key.
func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	original := []record.Record{
		{"k": []any{"a", "b"}, "other": 1},
		{"k": "c"},
		{"k": nil},
		{"other": 2},
		{"k": []any{}},
	}
	recs := make([]record.Record, len(original))
	for i, r := range original {
		recs[i] = r.Clone()
	}

	flat, shapes := flattenKey(recs, "k")
	parts, err := unflattenKey(flat, "k", shapes)
	if err != nil {
		t.Fatalf("unflatten: %v", err)
	}
	mergeKey(recs, parts, "k")

	if diff := cmp.Diff(original, recs); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
