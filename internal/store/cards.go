package store

import (
	"context"

	record "github.com/hanpama/hydrograph/internal/record"
)

// CardParams holds the writable fields of a card (a saved query with a
// visualization setting).
type CardParams struct {
	Name         string
	Description  string
	Display      string
	DatasetQuery string
	Database     string
	CreatorID    int64
	CollectionID *int64
}

// CreateCard inserts a card and returns the stored record.
func (s *DB) CreateCard(ctx context.Context, p CardParams) (record.Record, error) {
	display := p.Display
	if display == "" {
		display = "table"
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (name, description, display, dataset_query, database, creator_id, collection_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, display, p.DatasetQuery, p.Database, p.CreatorID, p.CollectionID, ts, ts)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.GetCard(ctx, id)
}

// UpdateCard overwrites the writable fields of a card and returns the stored
// record. The creator is never reassigned.
func (s *DB) UpdateCard(ctx context.Context, id int64, p CardParams) (record.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, description = ?, display = ?, dataset_query = ?, database = ?, collection_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.Display, p.DatasetQuery, p.Database, p.CollectionID, now(), id)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if n == 0 {
		return nil, ErrNotFound.New("card %d", id)
	}
	return s.GetCard(ctx, id)
}

// DeleteCard removes a card. Its dashboard placements cascade.
func (s *DB) DeleteCard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound.New("card %d", id)
	}
	return nil
}

// GetCard returns one card by id.
func (s *DB) GetCard(ctx context.Context, id int64) (record.Record, error) {
	return s.queryOne(ctx, `SELECT * FROM cards WHERE id = ?`, id)
}

// GetCardsByIDs bulk-fetches cards; the result is keyed by id.
func (s *DB) GetCardsByIDs(ctx context.Context, ids []any) (map[any]record.Record, error) {
	return s.queryByIDs(ctx, "cards", "id", ids)
}

// ListCards returns all non-archived cards ordered by id.
func (s *DB) ListCards(ctx context.Context) ([]record.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM cards WHERE archived = 0 ORDER BY id`)
}
