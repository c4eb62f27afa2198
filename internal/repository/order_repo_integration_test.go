//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/internal/database"
	"github.com/GTDGit/pdv_api/internal/models"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/
func integrationDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db.DB, "file://../../migrations"))
	_, err = db.Exec(`TRUNCATE classification_events, external_order_items, external_orders,
		sales, operators, products, attractions RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

type seed struct {
	attraction, otherAttraction int
	product, otherProduct       int
	operator                    int
}

func seedCatalog(t *testing.T, db *sqlx.DB) seed {
	t.Helper()
	var s seed
	require.NoError(t, db.Get(&s.attraction, `INSERT INTO attractions (name) VALUES ('Dreamhouse') RETURNING id`))
	require.NoError(t, db.Get(&s.otherAttraction, `INSERT INTO attractions (name) VALUES ('Museu') RETURNING id`))
	require.NoError(t, db.Get(&s.product,
		`INSERT INTO products (name, price, attraction_id) VALUES ('Dreamhouse', 50, $1) RETURNING id`, s.attraction))
	require.NoError(t, db.Get(&s.otherProduct,
		`INSERT INTO products (name, price, attraction_id) VALUES ('Museu', 30, $1) RETURNING id`, s.otherAttraction))
	require.NoError(t, db.Get(&s.operator,
		`INSERT INTO operators (name, username, password_hash, role) VALUES ('Ana', 'ana', 'x', 'staff') RETURNING id`))
	return s
}

func newOrder(externalID int64) *models.ExternalOrder {
	return &models.ExternalOrder{
		ExternalID: externalID,
		Number:     "N" + decimal.NewFromInt(externalID).String(),
		Status:     "paid",
		ValueTotal: decimal.NewFromInt(100),
		OrderedAt:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func newItem(externalID int64, name string) models.ExternalOrderItem {
	return models.ExternalOrderItem{
		ExternalItemID: externalID,
		ProductName:    name,
		Quantity:       1,
		UnitPrice:      decimal.NewFromInt(50),
		LineTotal:      decimal.NewFromInt(50),
	}
}

func itemIDs(items []models.ExternalOrderItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestOrderRepository_UpsertWithItemsIsIdempotent(t *testing.T) {
	db := integrationDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	items := []models.ExternalOrderItem{newItem(1, "Dreamhouse"), newItem(2, "Passeio de Barco")}
	first, err := repo.UpsertWithItems(ctx, newOrder(5001), items)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 2, first.ItemsInserted)
	before, err := repo.GetOrder(ctx, first.OrderID)
	require.NoError(t, err)

	items = []models.ExternalOrderItem{newItem(1, "Dreamhouse"), newItem(2, "Passeio de Barco")}
	again, err := repo.UpsertWithItems(ctx, newOrder(5001), items)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.OrderID, again.OrderID)
	assert.Equal(t, 2, again.ItemsUpdated)
	assert.Zero(t, again.ItemsInserted)
	assert.Zero(t, again.ItemsDeleted)

	withoutItems, err := repo.UpsertWithItems(ctx, newOrder(5001), nil)
	require.NoError(t, err)
	assert.False(t, withoutItems.Created)
	assert.Zero(t, withoutItems.ItemsDeleted)

	order, err := repo.GetOrder(ctx, first.OrderID)
	require.NoError(t, err)
	assert.Equal(t, itemIDs(before.Items), itemIDs(order.Items))

	shrunk, err := repo.UpsertWithItems(ctx, newOrder(5001), []models.ExternalOrderItem{newItem(1, "Dreamhouse")})
	require.NoError(t, err)
	assert.Equal(t, 1, shrunk.ItemsDeleted)

	var orders int
	require.NoError(t, db.Get(&orders, `SELECT COUNT(*) FROM external_orders`))
	assert.Equal(t, 1, orders)
}

func TestOrderRepository_ClassifyCascades(t *testing.T) {
	db := integrationDB(t)
	repo := NewOrderRepository(db)
	s := seedCatalog(t, db)
	ctx := context.Background()

	a, err := repo.UpsertWithItems(ctx, newOrder(6001), []models.ExternalOrderItem{newItem(1, "Passeio de Barco")})
	require.NoError(t, err)
	b, err := repo.UpsertWithItems(ctx, newOrder(6002), []models.ExternalOrderItem{newItem(1, "Passeio de Barco")})
	require.NoError(t, err)

	preset := newItem(1, "Passeio de Barco")
	preset.ProductID, preset.AttractionID, preset.Classified = &s.otherProduct, &s.otherAttraction, true
	c, err := repo.UpsertWithItems(ctx, newOrder(6003), []models.ExternalOrderItem{preset})
	require.NoError(t, err)
	assert.Equal(t, 1, c.AutoClassified)

	target, err := repo.GetOrder(ctx, a.OrderID)
	require.NoError(t, err)
	cascaded, err := repo.Classify(ctx, target.Items[0].ID, s.product, s.attraction, &s.operator)
	require.NoError(t, err)
	assert.Equal(t, 1, cascaded)

	other, err := repo.GetOrder(ctx, b.OrderID)
	require.NoError(t, err)
	assert.True(t, other.Processed)
	require.NotNil(t, other.Items[0].ProductID)
	assert.Equal(t, s.product, *other.Items[0].ProductID)

	untouched, err := repo.GetOrder(ctx, c.OrderID)
	require.NoError(t, err)
	assert.Equal(t, s.otherProduct, *untouched.Items[0].ProductID)

	history, err := repo.ClassificationHistory(ctx, other.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ClassificationCascade, history[0].Source)
}

func TestOrderRepository_ConfirmAllForOrder(t *testing.T) {
	db := integrationDB(t)
	repo := NewOrderRepository(db)
	s := seedCatalog(t, db)
	ctx := context.Background()

	classified := func(externalID int64, product, attraction int) models.ExternalOrderItem {
		it := newItem(externalID, "Ingresso")
		it.ProductID, it.AttractionID, it.Classified = &product, &attraction, true
		return it
	}
	out, err := repo.UpsertWithItems(ctx, newOrder(7001), []models.ExternalOrderItem{
		classified(1, s.product, s.attraction),
		classified(2, s.product, s.attraction),
		classified(3, s.otherProduct, s.otherAttraction),
		newItem(4, "Camiseta"),
	})
	require.NoError(t, err)

	order, err := repo.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	at := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	ok, err := repo.ConfirmItem(ctx, order.Items[0].ID, s.operator, at)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := repo.ConfirmAllForOrder(ctx, out.OrderID, s.attraction, s.operator, at)
	require.NoError(t, err)
	assert.Equal(t, &models.ConfirmAllResult{Confirmed: 1, AlreadyConfirmed: 1, Skipped: 2}, res)

	res, err = repo.ConfirmAllForOrder(ctx, out.OrderID, s.attraction, s.operator, at)
	require.NoError(t, err)
	assert.Equal(t, &models.ConfirmAllResult{Confirmed: 0, AlreadyConfirmed: 2, Skipped: 2}, res)

	order, err = repo.GetOrder(ctx, out.OrderID)
	require.NoError(t, err)
	assert.False(t, order.Items[2].Confirmed)
	assert.False(t, order.Items[3].Confirmed)

	_, err = repo.ConfirmAllForOrder(ctx, out.OrderID+100, s.attraction, s.operator, at)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
