// Package hydrate implements declarative resolution of deferred fields on
// domain records, including batched foreign-key resolution and recursive
// hydration through arbitrarily deep record graphs.
//
// # Overview
//
// A hydration key names a field that may be missing from a record or present
// only as a *record.Deferred placeholder. The Hydrator resolves such keys
// across a whole batch of records at once:
//
//   - Deferred placeholders are forced in place.
//   - Keys registered with a compute function are computed per record.
//   - Keys registered against an owning entity are resolved with a SINGLE
//     bulk fetch per batch: the distinct foreign-key values of all records
//     are collected, fetched once, and mapped back by identifier. A batch of
//     N records never issues N fetches.
//
// Fields that already hold a concrete, non-deferred value are never
// overwritten.
//
// # Nested hydration
//
// A Directive may carry nested directives to apply to the value(s) produced
// for its key. Because the value at a key can be a single record, a sequence
// of records, null, or absent entirely, nested hydration works over a
// flatten/transform/unflatten protocol:
//
//  1. Record per-record Shape descriptors for the key (absent, null, atom,
//     or count:N for sequences).
//  2. Flatten every record's value at the key into one combined slice, in
//     record order. Sequences are spliced in; atom/null/absent values each
//     contribute exactly one slot.
//  3. Hydrate the nested directives across the combined child batch, which
//     lets foreign keys from MANY parents share one bulk fetch.
//  4. Unflatten the combined slice back into per-record values using the
//     recorded shapes, and merge the results onto the original records.
//
// The round-trip law holds for any well-formed input: unflattening a freshly
// flattened batch reproduces the original per-record values (sequence values
// are normalized to []any).
//
// # Directive form
//
// Directives are built programmatically with Key and Nested, or parsed from
// the textual form used by the REST layer's hydrate parameter, which is a
// GraphQL-style selection set without the outer braces:
//
//	creator, collection { owner }
package hydrate
