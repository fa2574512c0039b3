package store

import (
	"context"

	record "github.com/hanpama/hydrograph/internal/record"
)

// UserParams holds the writable fields of a user.
type UserParams struct {
	Email     string
	FirstName string
	LastName  string
}

// CreateUser inserts a user and returns the stored record.
func (s *DB) CreateUser(ctx context.Context, p UserParams) (record.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`,
		p.Email, p.FirstName, p.LastName, now())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.GetUser(ctx, id)
}

// GetUser returns one user by id.
func (s *DB) GetUser(ctx context.Context, id int64) (record.Record, error) {
	return s.queryOne(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

// GetUsersByIDs bulk-fetches users; the result is keyed by id.
func (s *DB) GetUsersByIDs(ctx context.Context, ids []any) (map[any]record.Record, error) {
	return s.queryByIDs(ctx, "users", "id", ids)
}

// ListUsers returns all users ordered by id.
func (s *DB) ListUsers(ctx context.Context) ([]record.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM users ORDER BY id`)
}
