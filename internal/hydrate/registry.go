package hydrate

import (
	"context"
	"sync"

	record "github.com/hanpama/hydrograph/internal/record"
)

// ComputeFunc computes a field value from the record it belongs to.
// Return (nil, nil) to produce an explicit null.
type ComputeFunc func(ctx context.Context, rec record.Record) (any, error)

// BatchFetchFunc fetches entities for a set of distinct identifiers in one
// call. The result maps each found identifier to its entity record;
// identifiers with no match are simply absent from the map.
//
// Requirements:
//   - Implementations must not mutate ids.
//   - Identifiers are compared with ==, so the fetch result must key entities
//     by the same Go type the foreign-key fields carry (e.g. int64 for SQL
//     integer columns).
type BatchFetchFunc func(ctx context.Context, ids []any) (map[any]record.Record, error)

type entityResolver struct {
	foreignKey string
	fetch      BatchFetchFunc
}

// Registry maps hydration keys to their resolvers. A key is resolved either
// by an owning entity's bulk fetch (batched, keyed by a sibling foreign-key
// field) or by a per-record compute function. Entity registrations take
// precedence when a key has both.
//
// Registry is safe for concurrent use; registration normally happens once at
// startup.
type Registry struct {
	mu       sync.RWMutex
	computes map[string]ComputeFunc
	entities map[string]entityResolver
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		computes: make(map[string]ComputeFunc),
		entities: make(map[string]entityResolver),
	}
}

// RegisterCompute registers fn to compute key per record.
func (r *Registry) RegisterCompute(key string, fn ComputeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computes[key] = fn
}

// RegisterEntity registers key as backed by an external entity: each record's
// foreignKey field identifies the entity, and fetch bulk-loads entities by
// identifier. Hydrating key across a batch issues exactly one fetch.
func (r *Registry) RegisterEntity(key, foreignKey string, fetch BatchFetchFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[key] = entityResolver{foreignKey: foreignKey, fetch: fetch}
}

func (r *Registry) compute(key string) (ComputeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.computes[key]
	return fn, ok
}

func (r *Registry) entity(key string) (entityResolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	er, ok := r.entities[key]
	return er, ok
}
