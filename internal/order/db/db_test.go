package db_test

import (
	"context"
	"testing"

	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/order/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestDB(t *testing.T) *db.DB {
	bunDB, err := database.OpenSQLite("")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := database.Bootstrap(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to bootstrap schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func int64Ptr(v int64) *int64 { return &v }

func createType(t *testing.T, d *db.DB, priceID string, inventory *int64) *models.TicketType {
	tt := &models.TicketType{StripePriceID: priceID, Name: priceID, BasePriceMinor: 150000, TotalInventory: inventory, IsActive: true}
	require.NoError(t, d.CreateTicketType(context.Background(), tt))
	return tt
}

func createOrder(t *testing.T, d *db.DB, session string, typeID int64, qty int, status models.OrderStatus, email string) *models.Order {
	o := &models.Order{
		StripeCheckoutSessionID: session,
		CustomerEmail:           email,
		TicketTypeID:            typeID,
		Quantity:                qty,
		Status:                  status,
	}
	require.NoError(t, d.CreateOrder(context.Background(), d.Bun, o))
	return o
}

func TestCreateAndGetOrderBySession(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_a", nil)
	assert.Equal(t, "thb", tt.Currency)

	created := createOrder(t, d, "cs_1", tt.ID, 2, models.OrderStatusPaid, "a@example.com")

	got, err := d.GetOrderBySession(ctx, d.Bun, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 2, got.Quantity)

	_, err = d.GetOrderBySession(ctx, d.Bun, "cs_missing")
	assert.ErrorIs(t, err, db.ErrOrderNotFound)
}

func TestDuplicateSessionIsUniqueViolation(t *testing.T) {
	d := setupTestDB(t)
	tt := createType(t, d, "price_a", nil)
	createOrder(t, d, "cs_dup", tt.ID, 1, models.OrderStatusPaid, "a@example.com")

	err := d.CreateOrder(context.Background(), d.Bun, &models.Order{
		StripeCheckoutSessionID: "cs_dup",
		CustomerEmail:           "b@example.com",
		TicketTypeID:            tt.ID,
		Quantity:                1,
		Status:                  models.OrderStatusPaid,
	})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestSoldQuantityCountsPaidAndPendingOnly(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_a", int64Ptr(10))
	other := createType(t, d, "price_b", nil)

	createOrder(t, d, "cs_1", tt.ID, 4, models.OrderStatusPaid, "a@example.com")
	createOrder(t, d, "cs_2", tt.ID, 3, models.OrderStatusPending, "b@example.com")
	createOrder(t, d, "cs_3", tt.ID, 5, models.OrderStatusRefunded, "c@example.com")
	createOrder(t, d, "cs_4", tt.ID, 1, models.OrderStatusCanceled, "d@example.com")
	createOrder(t, d, "cs_5", other.ID, 2, models.OrderStatusPaid, "e@example.com")

	sold, err := d.SoldQuantity(ctx, d.Bun, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sold)

	byType, err := d.SoldByTicketType(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), byType[tt.ID])
	assert.Equal(t, int64(2), byType[other.ID])

	summary, err := d.OrderSummary(ctx)
	require.NoError(t, err)
	assert.Len(t, summary, 4)
}

func TestInPersonRedemptionExists(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_a", nil)
	createOrder(t, d, "in-person-1", tt.ID, 1, models.OrderStatusPaidInPerson, "door@example.com")
	createOrder(t, d, "cs_online", tt.ID, 1, models.OrderStatusPaid, "online@example.com")

	exists, err := d.InPersonRedemptionExists(ctx, d.Bun, "door@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.InPersonRedemptionExists(ctx, d.Bun, "online@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTicketTypeLifecycle(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_a", int64Ptr(100))
	createType(t, d, "price_b", nil)

	tt.IsActive = false
	tt.TotalInventory = int64Ptr(120)
	require.NoError(t, d.UpdateTicketType(ctx, tt))

	active, err := d.ListTicketTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "price_b", active[0].StripePriceID)

	got, err := d.GetTicketType(ctx, d.Bun, tt.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, int64(120), *got.TotalInventory)

	_, err = d.GetTicketType(ctx, d.Bun, 999)
	assert.ErrorIs(t, err, db.ErrTicketTypeNotFound)

	missing := &models.TicketType{ID: 999, Name: "ghost"}
	assert.ErrorIs(t, d.UpdateTicketType(ctx, missing), db.ErrTicketTypeNotFound)
}

func TestGetOrderWithTickets(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_a", nil)
	o := createOrder(t, d, "cs_t", tt.ID, 2, models.OrderStatusPaid, "a@example.com")

	for i, n := range []int64{6, 5} {
		_, err := d.Bun.NewInsert().Model(&models.Ticket{
			OrderID:           o.ID,
			TicketNumber:      n,
			AssignedFactionID: int64(i + 1),
			VerificationToken: "tok-" + string(rune('a'+i)),
			PurchaseMethod:    models.PurchaseOnline,
		}).Exec(ctx)
		require.NoError(t, err)
	}

	got, err := d.GetOrderWithTickets(ctx, "cs_t")
	require.NoError(t, err)
	require.NotNil(t, got.TicketType)
	require.Len(t, got.Tickets, 2)
	assert.Equal(t, int64(5), got.Tickets[0].TicketNumber)
	require.NotNil(t, got.Tickets[0].Faction)
}

func TestLockTicketTypeInsideTransaction(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	tt := createType(t, d, "price_lock", int64Ptr(10))

	err := d.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		got, err := d.LockTicketType(ctx, tx, tt.ID)
		require.NoError(t, err)
		assert.Equal(t, "price_lock", got.StripePriceID)
		assert.Equal(t, int64(10), *got.TotalInventory)

		_, err = d.LockTicketType(ctx, tx, 999)
		assert.ErrorIs(t, err, db.ErrTicketTypeNotFound)
		return nil
	})
	require.NoError(t, err)
}
