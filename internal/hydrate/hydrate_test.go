package hydrate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	record "github.com/hanpama/hydrograph/internal/record"
)

func TestHydrate_ForcesDeferred(t *testing.T) {
	calls := 0
	rec := record.Record{
		"name": "dashboard",
		"creator": record.Defer(func(context.Context) (any, error) {
			calls++
			return record.Record{"id": int64(1), "email": "ann@example.com"}, nil
		}),
	}
	h := New(NewRegistry())

	if err := h.HydrateOne(context.Background(), rec, Key("creator")); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	want := record.Record{
		"name":    "dashboard",
		"creator": record.Record{"id": int64(1), "email": "ann@example.com"},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("deferred forced %d times, want 1", calls)
	}

	// Hydrating again must not re-force anything.
	if err := h.HydrateOne(context.Background(), rec, Key("creator")); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("deferred re-forced: %d calls", calls)
	}
}

func TestHydrate_DeferredError(t *testing.T) {
	boom := errors.New("boom")
	rec := record.Record{
		"creator": record.Defer(func(context.Context) (any, error) { return nil, boom }),
	}
	h := New(NewRegistry())
	err := h.HydrateOne(context.Background(), rec, Key("creator"))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestHydrate_ComputeFunc(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCompute("full_name", func(_ context.Context, rec record.Record) (any, error) {
		return rec["first_name"].(string) + " " + rec["last_name"].(string), nil
	})
	h := New(reg)

	recs := []record.Record{
		{"first_name": "Ann", "last_name": "Lee"},
		{"first_name": "Bob", "last_name": "Ray", "full_name": "already set"},
	}
	if err := h.Hydrate(context.Background(), recs, Key("full_name")); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if recs[0]["full_name"] != "Ann Lee" {
		t.Fatalf("full_name = %v", recs[0]["full_name"])
	}
	// Concrete values are never clobbered.
	if recs[1]["full_name"] != "already set" {
		t.Fatalf("clobbered concrete value: %v", recs[1]["full_name"])
	}
}

func TestHydrate_ComputeNullResult(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCompute("nickname", func(context.Context, record.Record) (any, error) {
		return nil, nil
	})
	h := New(reg)

	rec := record.Record{}
	if err := h.HydrateOne(context.Background(), rec, Key("nickname")); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	v, ok := rec["nickname"]
	if !ok || v != nil {
		t.Fatalf("nickname = %v present=%v, want explicit null", v, ok)
	}
}

func TestHydrate_UnknownKey(t *testing.T) {
	h := New(NewRegistry())
	err := h.Hydrate(context.Background(), []record.Record{{}}, Key("nope"))
	if err == nil {
		t.Fatalf("expected error for unregistered key")
	}
}

func TestHydrate_UnknownKeyAllConcrete(t *testing.T) {
	// No resolver needed when every record already holds a concrete value.
	h := New(NewRegistry())
	recs := []record.Record{{"k": 1}, {"k": nil}}
	if err := h.Hydrate(context.Background(), recs, Key("k")); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
}

func TestHydrate_NilRecordSkipped(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCompute("k", func(context.Context, record.Record) (any, error) { return 1, nil })
	h := New(reg)
	recs := []record.Record{nil, {"x": 1}}
	if err := h.Hydrate(context.Background(), recs, Key("k")); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if recs[1]["k"] != 1 {
		t.Fatalf("k = %v", recs[1]["k"])
	}
}
