// Package revision maintains per-entity revision history. It subscribes to
// entity write events on the eventbus and appends a JSON snapshot plus a
// field-level diff for every create/update. Recording is best-effort by
// design: a failed revision write is logged and dropped, never surfaced to
// the request that triggered it.
package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	record "github.com/hanpama/hydrograph/internal/record"
	store "github.com/hanpama/hydrograph/internal/store"
)

// volatileKeys never appear in diffs; they change on every write.
var volatileKeys = map[string]struct{}{
	"updated_at": {},
}

// Recorder appends revision rows in response to entity write events.
type Recorder struct {
	db  *store.DB
	log *zap.Logger
}

// Attach subscribes a Recorder to the global eventbus and returns a detach
// function.
func Attach(db *store.DB, log *zap.Logger) (detach func()) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{db: db, log: log}
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.EntityCreate) {
			r.record(ctx, e.Model, e.ModelID, e.ActorID, e.Object, true)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.EntityUpdate) {
			r.record(ctx, e.Model, e.ModelID, e.ActorID, e.Object, false)
		}),
	}
	return func() {
		for _, un := range unsubs {
			un()
		}
	}
}

func (r *Recorder) record(ctx context.Context, model string, modelID int64, actorID *int64, object record.Record, isCreation bool) {
	snapshot, err := json.Marshal(object)
	if err != nil {
		r.log.Warn("revision snapshot failed",
			zap.String("model", model), zap.Int64("model_id", modelID), zap.Error(err))
		return
	}

	diff := ""
	if !isCreation {
		if prev, err := r.db.LatestRevision(ctx, model, modelID); err == nil {
			var before record.Record
			if json.Unmarshal([]byte(prev["object"].(string)), &before) == nil {
				diff = Diff(before, object)
			}
		}
	}

	_, err = r.db.InsertRevision(ctx, store.RevisionParams{
		Model:      model,
		ModelID:    modelID,
		UserID:     actorID,
		Object:     string(snapshot),
		Diff:       diff,
		IsCreation: isCreation,
	})
	if err != nil {
		r.log.Warn("revision insert failed",
			zap.String("model", model), zap.Int64("model_id", modelID), zap.Error(err))
	}
}

// Diff renders a field-level diff between two snapshots, one line per
// changed key, sorted by key. Volatile keys (timestamps) are skipped.
// Values are compared through their JSON rendering so that snapshots
// restored from storage compare equal to fresh records.
func Diff(before, after record.Record) string {
	keys := map[string]struct{}{}
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		if _, skip := volatileKeys[k]; skip {
			continue
		}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	out := ""
	for _, k := range sorted {
		bv, inBefore := before[k]
		av, inAfter := after[k]
		bs, as := jsonRender(bv), jsonRender(av)
		switch {
		case !inBefore:
			out += fmt.Sprintf("%s: added %s\n", k, as)
		case !inAfter:
			out += fmt.Sprintf("%s: removed %s\n", k, bs)
		case bs != as:
			out += fmt.Sprintf("%s: %s -> %s\n", k, bs, as)
		}
	}
	return out
}

func jsonRender(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
