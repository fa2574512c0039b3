package hydrate

import (
	"context"
	"fmt"

	record "github.com/hanpama/hydrograph/internal/record"
)

// Hydrator resolves hydration directives against batches of records using
// the resolvers in its Registry.
type Hydrator struct {
	reg *Registry
}

// New creates a Hydrator backed by reg.
func New(reg *Registry) *Hydrator {
	return &Hydrator{reg: reg}
}

// Hydrate resolves directives across recs in place. Directives are applied
// in order; within one directive the key itself is resolved first and any
// nested directives are then applied to the value(s) it produced.
//
// Guarantees:
//   - A field that was deferred or absent and has a registered resolver ends
//     up concrete (or explicit null).
//   - Fields already holding a concrete, non-deferred value are never
//     overwritten.
//   - Entity-backed keys issue one bulk fetch per batch, including batches
//     assembled from nested sequence values across many parents.
func (h *Hydrator) Hydrate(ctx context.Context, recs []record.Record, directives ...Directive) error {
	for _, d := range directives {
		if err := h.hydrateKey(ctx, recs, d.Key); err != nil {
			return err
		}
		if len(d.Nested) > 0 {
			if err := h.hydrateNested(ctx, recs, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// HydrateOne resolves directives against a single record.
func (h *Hydrator) HydrateOne(ctx context.Context, rec record.Record, directives ...Directive) error {
	return h.Hydrate(ctx, []record.Record{rec}, directives...)
}

// hydrateKey resolves one key across the batch. Deferred placeholders are
// forced; remaining absent keys go through the registry: the entity resolver
// (batched) when registered, otherwise the compute function per record.
func (h *Hydrator) hydrateKey(ctx context.Context, recs []record.Record, key string) error {
	var pending []record.Record
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		v, ok := rec[key]
		if !ok {
			pending = append(pending, rec)
			continue
		}
		if d, isDeferred := v.(*record.Deferred); isDeferred {
			forced, err := d.Force(ctx)
			if err != nil {
				return fmt.Errorf("force %q: %w", key, err)
			}
			rec[key] = forced
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if er, ok := h.reg.entity(key); ok {
		return h.hydrateEntity(ctx, pending, key, er)
	}
	if fn, ok := h.reg.compute(key); ok {
		for _, rec := range pending {
			v, err := fn(ctx, rec)
			if err != nil {
				return fmt.Errorf("compute %q: %w", key, err)
			}
			rec[key] = v
		}
		return nil
	}
	return fmt.Errorf("no resolver registered for key %q", key)
}

// hydrateEntity performs batched foreign-key resolution: it collects the
// distinct foreign-key values across recs, issues a single bulk fetch, and
// maps results back by identifier. Records with a null foreign key, and
// identifiers the fetch did not return, get an explicit null.
func (h *Hydrator) hydrateEntity(ctx context.Context, recs []record.Record, key string, er entityResolver) error {
	ids := make([]any, 0, len(recs))
	seen := make(map[any]struct{}, len(recs))
	for _, rec := range recs {
		id := rec[er.foreignKey]
		if record.IsNullish(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var fetched map[any]record.Record
	if len(ids) > 0 {
		var err error
		fetched, err = er.fetch(ctx, ids)
		if err != nil {
			return fmt.Errorf("fetch %q: %w", key, err)
		}
	}

	for _, rec := range recs {
		id := rec[er.foreignKey]
		if record.IsNullish(id) {
			rec[key] = nil
			continue
		}
		if ent, ok := fetched[id]; ok {
			rec[key] = ent
		} else {
			rec[key] = nil
		}
	}
	return nil
}

// hydrateNested applies d.Nested to the value(s) at d.Key. The per-record
// values are flattened into one combined child batch (so entity lookups for
// children of many parents share a single fetch), hydrated recursively, and
// unflattened back into their original per-record shapes.
func (h *Hydrator) hydrateNested(ctx context.Context, recs []record.Record, d Directive) error {
	flat, shapes := flattenKey(recs, d.Key)

	children := make([]record.Record, 0, len(flat))
	idx := make([]int, 0, len(flat))
	for i, v := range flat {
		if child, ok := asRecord(v); ok {
			children = append(children, child)
			idx = append(idx, i)
		}
	}
	if len(children) > 0 {
		if err := h.Hydrate(ctx, children, d.Nested...); err != nil {
			return fmt.Errorf("nested %q: %w", d.Key, err)
		}
		for j, i := range idx {
			flat[i] = children[j]
		}
	}

	parts, err := unflattenKey(flat, d.Key, shapes)
	if err != nil {
		return err
	}
	mergeKey(recs, parts, d.Key)
	return nil
}

func asRecord(v any) (record.Record, bool) {
	switch r := v.(type) {
	case record.Record:
		return r, true
	case map[string]any:
		return record.Record(r), true
	}
	return nil, false
}
