package store

import (
	"context"
	"strings"

	record "github.com/hanpama/hydrograph/internal/record"
)

// CollectionParams holds the writable fields of a collection.
type CollectionParams struct {
	Name    string
	Color   string
	OwnerID *int64
}

// CreateCollection inserts a collection and returns the stored record. The
// slug is derived from the name.
func (s *DB) CreateCollection(ctx context.Context, p CollectionParams) (record.Record, error) {
	color := p.Color
	if color == "" {
		color = "#509EE3"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, slug, color, owner_id) VALUES (?, ?, ?, ?)`,
		p.Name, slugify(p.Name), color, p.OwnerID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.GetCollection(ctx, id)
}

// GetCollection returns one collection by id.
func (s *DB) GetCollection(ctx context.Context, id int64) (record.Record, error) {
	return s.queryOne(ctx, `SELECT * FROM collections WHERE id = ?`, id)
}

// GetCollectionsByIDs bulk-fetches collections; the result is keyed by id.
func (s *DB) GetCollectionsByIDs(ctx context.Context, ids []any) (map[any]record.Record, error) {
	return s.queryByIDs(ctx, "collections", "id", ids)
}

// ListCollections returns all non-archived collections ordered by name.
func (s *DB) ListCollections(ctx context.Context) ([]record.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM collections WHERE archived = 0 ORDER BY name`)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
