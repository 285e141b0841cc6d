package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dreamstate-ticketing/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

type DB struct {
	Bun *bun.DB
}

// Conn is the pool itself, for reads that run outside a transaction.
func (d *DB) Conn() bun.IDB {
	return d.Bun
}

// RunInTx runs fn in a single transaction; fn must use tx for every query.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, fn)
}

func (d *DB) GetOrderBySession(ctx context.Context, idb bun.IDB, sessionID string) (*models.Order, error) {
	var order models.Order
	err := idb.NewSelect().
		Model(&order).
		Where("stripe_checkout_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderWithTickets loads the order, its ticket type and tickets with factions.
func (d *DB) GetOrderWithTickets(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("TicketType").
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Relation("Faction").Order("ticket.ticket_number ASC")
		}).
		Where("o.stripe_checkout_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) CreateOrder(ctx context.Context, idb bun.IDB, order *models.Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	_, err := idb.NewInsert().Model(order).Exec(ctx)
	return err
}

// InPersonRedemptionExists reports whether a door sale already exists for the normalized email.
func (d *DB) InPersonRedemptionExists(ctx context.Context, idb bun.IDB, email string) (bool, error) {
	return idb.NewSelect().
		Model((*models.Order)(nil)).
		Where("status = ?", models.OrderStatusPaidInPerson).
		Where("customer_email = ?", email).
		Exists(ctx)
}

func (d *DB) GetTicketType(ctx context.Context, idb bun.IDB, id int64) (*models.TicketType, error) {
	var tt models.TicketType
	err := idb.NewSelect().Model(&tt).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (d *DB) ListTicketTypes(ctx context.Context, activeOnly bool) ([]models.TicketType, error) {
	var types []models.TicketType
	q := d.Bun.NewSelect().Model(&types).Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Scan(ctx)
	return types, err
}

func (d *DB) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	now := time.Now().UTC()
	tt.CreatedAt, tt.UpdatedAt = now, now
	if tt.Currency == "" {
		tt.Currency = "thb"
	}
	_, err := d.Bun.NewInsert().Model(tt).Exec(ctx)
	return err
}

// UpdateTicketType writes the mutable columns of a ticket type.
func (d *DB) UpdateTicketType(ctx context.Context, tt *models.TicketType) error {
	tt.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(tt).
		Column("name", "description", "base_price_minor", "total_inventory", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketTypeNotFound
	}
	return nil
}

// LockTicketType loads a ticket type and, on Postgres, holds its row lock until idb commits.
// Fulfillments of the same type serialize here before reading the sold count.
func (d *DB) LockTicketType(ctx context.Context, idb bun.IDB, id int64) (*models.TicketType, error) {
	var tt models.TicketType
	q := idb.NewSelect().Model(&tt).Where("id = ?", id).Limit(1)
	if idb.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// SoldQuantity sums order quantities in the inventory-counting statuses.
func (d *DB) SoldQuantity(ctx context.Context, idb bun.IDB, ticketTypeID int64) (int64, error) {
	var sold int64
	err := idb.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("ticket_type_id = ?", ticketTypeID).
		Where("status IN (?)", bun.In(models.InventoryStatuses)).
		Scan(ctx, &sold)
	return sold, err
}

type soldRow struct {
	TicketTypeID int64 `bun:"ticket_type_id"`
	Sold         int64 `bun:"sold"`
}

// SoldByTicketType is SoldQuantity for every ticket type at once.
func (d *DB) SoldByTicketType(ctx context.Context) (map[int64]int64, error) {
	var rows []soldRow
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Column("ticket_type_id").
		ColumnExpr("COALESCE(SUM(quantity), 0) AS sold").
		Where("status IN (?)", bun.In(models.InventoryStatuses)).
		Group("ticket_type_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.TicketTypeID] = r.Sold
	}
	return out, nil
}

type OrderStatusCount struct {
	Status   models.OrderStatus `bun:"status" json:"status"`
	Orders   int64              `bun:"orders" json:"orders"`
	Quantity int64              `bun:"quantity" json:"quantity"`
}

// OrderSummary groups orders by status for the maintenance CLI.
func (d *DB) OrderSummary(ctx context.Context) ([]OrderStatusCount, error) {
	var rows []OrderStatusCount
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS orders").
		ColumnExpr("COALESCE(SUM(quantity), 0) AS quantity").
		Group("status").
		Order("status ASC").
		Scan(ctx, &rows)
	return rows, err
}
