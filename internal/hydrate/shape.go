package hydrate

import (
	"fmt"
	"reflect"

	record "github.com/hanpama/hydrograph/internal/record"
)

// ShapeKind classifies the value a record holds at a key.
type ShapeKind int

const (
	// ShapeAbsent means the key is missing from the record.
	ShapeAbsent ShapeKind = iota
	// ShapeNull means the key is present with a null value.
	ShapeNull
	// ShapeAtom means the key holds a single non-sequence value.
	ShapeAtom
	// ShapeCount means the key holds a sequence of Count values.
	ShapeCount
)

// Shape records how one record held its value at a key, so a flattened
// batch can be reassembled into its original per-record shape.
type Shape struct {
	Kind  ShapeKind
	Count int
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapeAbsent:
		return "absent"
	case ShapeNull:
		return "null"
	case ShapeAtom:
		return "atom"
	case ShapeCount:
		return fmt.Sprintf("count:%d", s.Count)
	default:
		return fmt.Sprintf("unknown(%d)", int(s.Kind))
	}
}

// shapeOf reports the shape of rec's value at key. Pure; no side effects.
func shapeOf(rec record.Record, key string) Shape {
	v, ok := rec[key]
	if !ok {
		return Shape{Kind: ShapeAbsent}
	}
	if record.IsNullish(v) {
		return Shape{Kind: ShapeNull}
	}
	if seq, ok := asSequence(v); ok {
		return Shape{Kind: ShapeCount, Count: len(seq)}
	}
	return Shape{Kind: ShapeAtom}
}

// flattenKey concatenates, in record order, each record's value at key into
// one combined slice and returns the per-record shapes alongside. Sequence
// values are spliced in; atom values contribute one slot; null and absent
// values contribute one nil placeholder slot each.
func flattenKey(recs []record.Record, key string) ([]any, []Shape) {
	shapes := make([]Shape, len(recs))
	flat := make([]any, 0, len(recs))
	for i, rec := range recs {
		sh := shapeOf(rec, key)
		shapes[i] = sh
		switch sh.Kind {
		case ShapeAbsent, ShapeNull:
			flat = append(flat, nil)
		case ShapeAtom:
			flat = append(flat, rec[key])
		case ShapeCount:
			seq, _ := asSequence(rec[key])
			flat = append(flat, seq...)
		}
	}
	return flat, shapes
}

// unflattenKey consumes flat in order according to shapes, producing one
// reconstructed {key: value} record per original record. A count:N shape
// consumes N slots into a sequence, atom consumes one slot as a scalar, and
// null/absent consume one placeholder slot producing explicit null / nothing.
func unflattenKey(flat []any, key string, shapes []Shape) ([]record.Record, error) {
	out := make([]record.Record, len(shapes))
	pos := 0
	for i, sh := range shapes {
		switch sh.Kind {
		case ShapeAbsent:
			if pos >= len(flat) {
				return nil, fmt.Errorf("unflatten %q: flat values exhausted at record %d", key, i)
			}
			pos++
			out[i] = record.Record{}
		case ShapeNull:
			if pos >= len(flat) {
				return nil, fmt.Errorf("unflatten %q: flat values exhausted at record %d", key, i)
			}
			pos++
			out[i] = record.Record{key: nil}
		case ShapeAtom:
			if pos >= len(flat) {
				return nil, fmt.Errorf("unflatten %q: flat values exhausted at record %d", key, i)
			}
			out[i] = record.Record{key: flat[pos]}
			pos++
		case ShapeCount:
			if pos+sh.Count > len(flat) {
				return nil, fmt.Errorf("unflatten %q: flat values exhausted at record %d", key, i)
			}
			seq := make([]any, sh.Count)
			copy(seq, flat[pos:pos+sh.Count])
			out[i] = record.Record{key: seq}
			pos += sh.Count
		default:
			return nil, fmt.Errorf("unflatten %q: unknown shape %v at record %d", key, sh, i)
		}
	}
	if pos != len(flat) {
		return nil, fmt.Errorf("unflatten %q: %d flat values left over", key, len(flat)-pos)
	}
	return out, nil
}

// mergeKey writes each reconstructed {key: value} part back onto its record.
// Parts without the key (absent shapes) leave the record untouched.
func mergeKey(recs []record.Record, parts []record.Record, key string) {
	for i, part := range parts {
		if v, ok := part[key]; ok {
			recs[i][key] = v
		}
	}
}

// asSequence normalizes sequence-shaped values to []any. []byte is treated
// as an atom.
func asSequence(v any) ([]any, bool) {
	switch seq := v.(type) {
	case []any:
		return seq, true
	case []record.Record:
		out := make([]any, len(seq))
		for i, r := range seq {
			out[i] = r
		}
		return out, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
