package events

import record "github.com/hanpama/hydrograph/internal/record"

// EntityCreate is emitted after an entity row is inserted.
type EntityCreate struct {
	Model   string
	ModelID int64
	ActorID *int64
	Object  record.Record
}

// EntityUpdate is emitted after an entity row is overwritten.
type EntityUpdate struct {
	Model   string
	ModelID int64
	ActorID *int64
	Object  record.Record
}

// EntityDelete is emitted after an entity row is removed.
type EntityDelete struct {
	Model   string
	ModelID int64
	ActorID *int64
}
