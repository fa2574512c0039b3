package store

import (
	"context"

	hydrate "github.com/hanpama/hydrograph/internal/hydrate"
	record "github.com/hanpama/hydrograph/internal/record"
)

// RegisterHydration wires the store's bulk fetches and computed fields into
// a hydration registry. Keys follow the foreign-key naming of the schema:
// hydrating "creator" on any record reads its "creator_id" sibling, and so
// on.
func (s *DB) RegisterHydration(reg *hydrate.Registry) {
	reg.RegisterEntity("creator", "creator_id", s.GetUsersByIDs)
	reg.RegisterEntity("owner", "owner_id", s.GetUsersByIDs)
	reg.RegisterEntity("user", "user_id", s.GetUsersByIDs)
	reg.RegisterEntity("collection", "collection_id", s.GetCollectionsByIDs)
	reg.RegisterEntity("card", "card_id", s.GetCardsByIDs)
	reg.RegisterEntity("dashboard", "dashboard_id", s.GetDashboardsByIDs)

	// A dashboard's card placements are a one-to-many lookup, computed per
	// dashboard; the cards within them batch through the "card" entity key.
	reg.RegisterCompute("cards", func(ctx context.Context, rec record.Record) (any, error) {
		id, ok := rec["id"].(int64)
		if !ok {
			return nil, nil
		}
		placements, err := s.ListDashboardCards(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(placements))
		for i, p := range placements {
			out[i] = p
		}
		return out, nil
	})
}
