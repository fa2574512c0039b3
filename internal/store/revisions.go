package store

import (
	"context"

	record "github.com/hanpama/hydrograph/internal/record"
)

// RevisionParams holds one revision-history entry: a JSON snapshot of an
// entity after a write, plus an optional diff against the previous snapshot.
type RevisionParams struct {
	Model      string
	ModelID    int64
	UserID     *int64
	Object     string
	Diff       string
	IsCreation bool
}

// InsertRevision appends a revision row.
func (s *DB) InsertRevision(ctx context.Context, p RevisionParams) (record.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revisions (model, model_id, user_id, object, diff, is_creation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Model, p.ModelID, p.UserID, p.Object, p.Diff, boolToInt(p.IsCreation), now())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.queryOne(ctx, `SELECT * FROM revisions WHERE id = ?`, id)
}

// ListRevisions returns an entity's revisions, most recent first.
func (s *DB) ListRevisions(ctx context.Context, model string, modelID int64) ([]record.Record, error) {
	return s.queryRecords(ctx,
		`SELECT * FROM revisions WHERE model = ? AND model_id = ? ORDER BY id DESC`, model, modelID)
}

// LatestRevision returns the most recent revision of an entity, or
// ErrNotFound when the entity has none.
func (s *DB) LatestRevision(ctx context.Context, model string, modelID int64) (record.Record, error) {
	return s.queryOne(ctx,
		`SELECT * FROM revisions WHERE model = ? AND model_id = ? ORDER BY id DESC LIMIT 1`, model, modelID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
