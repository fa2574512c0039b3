package store

import (
	"context"

	record "github.com/hanpama/hydrograph/internal/record"
)

// DashboardParams holds the writable fields of a dashboard.
type DashboardParams struct {
	Name        string
	Description string
	CreatorID   int64
}

// DashboardCardParams places a card on a dashboard grid.
type DashboardCardParams struct {
	CardID int64
	Row    int
	Col    int
	SizeX  int
	SizeY  int
}

// CreateDashboard inserts a dashboard and returns the stored record.
func (s *DB) CreateDashboard(ctx context.Context, p DashboardParams) (record.Record, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboards (name, description, creator_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.CreatorID, ts, ts)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.GetDashboard(ctx, id)
}

// UpdateDashboard overwrites the writable fields of a dashboard.
func (s *DB) UpdateDashboard(ctx context.Context, id int64, p DashboardParams) (record.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dashboards SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, now(), id)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if n == 0 {
		return nil, ErrNotFound.New("dashboard %d", id)
	}
	return s.GetDashboard(ctx, id)
}

// DeleteDashboard removes a dashboard and its card placements.
func (s *DB) DeleteDashboard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboards WHERE id = ?`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound.New("dashboard %d", id)
	}
	return nil
}

// GetDashboard returns one dashboard by id.
func (s *DB) GetDashboard(ctx context.Context, id int64) (record.Record, error) {
	return s.queryOne(ctx, `SELECT * FROM dashboards WHERE id = ?`, id)
}

// GetDashboardsByIDs bulk-fetches dashboards; the result is keyed by id.
func (s *DB) GetDashboardsByIDs(ctx context.Context, ids []any) (map[any]record.Record, error) {
	return s.queryByIDs(ctx, "dashboards", "id", ids)
}

// ListDashboards returns all dashboards ordered by id.
func (s *DB) ListDashboards(ctx context.Context) ([]record.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM dashboards ORDER BY id`)
}

// AddDashboardCard places a card on a dashboard and returns the placement.
func (s *DB) AddDashboardCard(ctx context.Context, dashboardID int64, p DashboardCardParams) (record.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboard_cards (dashboard_id, card_id, row, col, size_x, size_y) VALUES (?, ?, ?, ?, ?, ?)`,
		dashboardID, p.CardID, p.Row, p.Col, p.SizeX, p.SizeY)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.queryOne(ctx, `SELECT * FROM dashboard_cards WHERE id = ?`, id)
}

// ListDashboardCards returns a dashboard's card placements in grid order.
func (s *DB) ListDashboardCards(ctx context.Context, dashboardID int64) ([]record.Record, error) {
	return s.queryRecords(ctx,
		`SELECT * FROM dashboard_cards WHERE dashboard_id = ? ORDER BY row, col, id`, dashboardID)
}
