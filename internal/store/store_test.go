package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	hydrate "github.com/hanpama/hydrograph/internal/hydrate"
	record "github.com/hanpama/hydrograph/internal/record"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, UserParams{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", u["email"])
	require.Equal(t, int64(1), u["id"])

	got, err := db.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, u, got)

	_, err = db.GetUser(ctx, 99)
	require.True(t, ErrNotFound.Has(err))
}

func TestGetUsersByIDs_KeyedByID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := db.CreateUser(ctx, UserParams{Email: email, FirstName: "f", LastName: "l"})
		require.NoError(t, err)
	}

	got, err := db.GetUsersByIDs(ctx, []any{int64(1), int64(3), int64(42)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a@x.com", got[int64(1)]["email"])
	require.Equal(t, "c@x.com", got[int64(3)]["email"])

	empty, err := db.GetUsersByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCardCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, UserParams{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)

	card, err := db.CreateCard(ctx, CardParams{
		Name:         "Weekly Signups",
		DatasetQuery: "SELECT 1",
		Database:     "app",
		CreatorID:    u["id"].(int64),
	})
	require.NoError(t, err)
	require.Equal(t, "table", card["display"])
	require.Equal(t, u["id"], card["creator_id"])

	card, err = db.UpdateCard(ctx, card["id"].(int64), CardParams{
		Name:         "Weekly Signups (v2)",
		Display:      "line",
		DatasetQuery: "SELECT 2",
		Database:     "app",
	})
	require.NoError(t, err)
	require.Equal(t, "Weekly Signups (v2)", card["name"])
	require.Equal(t, "line", card["display"])

	list, err := db.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, db.DeleteCard(ctx, card["id"].(int64)))
	require.True(t, ErrNotFound.Has(db.DeleteCard(ctx, card["id"].(int64))))
}

func TestDashboardCards_GridOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, UserParams{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	uid := u["id"].(int64)

	dash, err := db.CreateDashboard(ctx, DashboardParams{Name: "Growth", CreatorID: uid})
	require.NoError(t, err)
	dashID := dash["id"].(int64)

	var cardIDs []int64
	for _, name := range []string{"c1", "c2"} {
		c, err := db.CreateCard(ctx, CardParams{Name: name, DatasetQuery: "SELECT 1", Database: "app", CreatorID: uid})
		require.NoError(t, err)
		cardIDs = append(cardIDs, c["id"].(int64))
	}

	_, err = db.AddDashboardCard(ctx, dashID, DashboardCardParams{CardID: cardIDs[1], Row: 1, Col: 0, SizeX: 4, SizeY: 4})
	require.NoError(t, err)
	_, err = db.AddDashboardCard(ctx, dashID, DashboardCardParams{CardID: cardIDs[0], Row: 0, Col: 0, SizeX: 4, SizeY: 4})
	require.NoError(t, err)

	placements, err := db.ListDashboardCards(ctx, dashID)
	require.NoError(t, err)
	require.Len(t, placements, 2)
	require.Equal(t, cardIDs[0], placements[0]["card_id"])
	require.Equal(t, cardIDs[1], placements[1]["card_id"])
}

func TestRevisions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.LatestRevision(ctx, "card", 1)
	require.True(t, ErrNotFound.Has(err))

	_, err = db.InsertRevision(ctx, RevisionParams{Model: "card", ModelID: 1, Object: `{"name":"a"}`, IsCreation: true})
	require.NoError(t, err)
	_, err = db.InsertRevision(ctx, RevisionParams{Model: "card", ModelID: 1, Object: `{"name":"b"}`, Diff: `name: "a" -> "b"`})
	require.NoError(t, err)

	latest, err := db.LatestRevision(ctx, "card", 1)
	require.NoError(t, err)
	require.Equal(t, `{"name":"b"}`, latest["object"])

	revs, err := db.ListRevisions(ctx, "card", 1)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	require.Equal(t, `{"name":"b"}`, revs[0]["object"])
	require.Equal(t, int64(1), revs[1]["is_creation"])
}

func TestRegisterHydration_DashboardGraph(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ann, err := db.CreateUser(ctx, UserParams{Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	bob, err := db.CreateUser(ctx, UserParams{Email: "bob@example.com", FirstName: "Bob", LastName: "Ray"})
	require.NoError(t, err)

	dash, err := db.CreateDashboard(ctx, DashboardParams{Name: "Growth", CreatorID: ann["id"].(int64)})
	require.NoError(t, err)
	c1, err := db.CreateCard(ctx, CardParams{Name: "c1", DatasetQuery: "SELECT 1", Database: "app", CreatorID: ann["id"].(int64)})
	require.NoError(t, err)
	c2, err := db.CreateCard(ctx, CardParams{Name: "c2", DatasetQuery: "SELECT 2", Database: "app", CreatorID: bob["id"].(int64)})
	require.NoError(t, err)
	for _, c := range []record.Record{c1, c2} {
		_, err = db.AddDashboardCard(ctx, dash["id"].(int64), DashboardCardParams{CardID: c["id"].(int64)})
		require.NoError(t, err)
	}

	reg := hydrate.NewRegistry()
	db.RegisterHydration(reg)
	h := hydrate.New(reg)

	err = h.HydrateOne(ctx, dash,
		hydrate.Key("creator"),
		hydrate.Nested("cards", hydrate.Nested("card", hydrate.Key("creator"))))
	require.NoError(t, err)

	require.Equal(t, "ann@example.com", dash["creator"].(record.Record)["email"])
	cards := dash["cards"].([]any)
	require.Len(t, cards, 2)
	first := cards[0].(record.Record)
	require.Equal(t, "c1", first["card"].(record.Record)["name"])
	require.Equal(t, "ann@example.com", first["card"].(record.Record)["creator"].(record.Record)["email"])
	second := cards[1].(record.Record)
	require.Equal(t, "bob@example.com", second["card"].(record.Record)["creator"].(record.Record)["email"])
}
