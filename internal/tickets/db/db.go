package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/models"

	"github.com/uptrace/bun"
)

// ErrCounterMissing means the ticket_counter row was never seeded.
var ErrCounterMissing = errors.New("ticket counter row (id = 1) is missing")

var ErrTicketNotFound = errors.New("ticket not found")

type DB struct {
	Bun *bun.DB
}

// NextTicketNumber increments the counter and returns the new value. It runs on
// idb so callers can keep the increment inside their transaction.
func (d *DB) NextTicketNumber(ctx context.Context, idb bun.IDB) (int64, error) {
	var next int64
	err := idb.NewRaw(
		"UPDATE ticket_counter SET current_value = current_value + 1 WHERE id = 1 RETURNING current_value",
	).Scan(ctx, &next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCounterMissing
	}
	if err != nil {
		return 0, fmt.Errorf("increment ticket counter: %w", err)
	}
	return next, nil
}

// CurrentTicketNumber reads the counter without advancing it.
func (d *DB) CurrentTicketNumber(ctx context.Context) (int64, error) {
	var counter models.TicketCounter
	err := d.Bun.NewSelect().Model(&counter).Where("id = 1").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCounterMissing
	}
	return counter.CurrentValue, err
}

func (d *DB) CreateTicket(ctx context.Context, idb bun.IDB, ticket *models.Ticket) error {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	_, err := idb.NewInsert().Model(ticket).Exec(ctx)
	return err
}

// GetTicketByToken loads a ticket with its faction and order.
func (d *DB) GetTicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Relation("Faction").
		Relation("Order").
		Where("ticket.verification_token = ?", token).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkVerified flips is_verified only while it is still false and reports
// whether this call made the transition.
func (d *DB) MarkVerified(ctx context.Context, ticketID int64, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("is_verified = ?", true).
		Set("verified_at = ?", at).
		Where("id = ?", ticketID).
		Where("is_verified = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) GetTicketsByOrder(ctx context.Context, orderID int64) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Relation("Faction").
		Where("ticket.order_id = ?", orderID).
		Order("ticket.ticket_number ASC").
		Scan(ctx)
	return tickets, err
}

// ListTickets returns every ticket, newest number first, with order, ticket type and faction.
func (d *DB) ListTickets(ctx context.Context, limit, offset int) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	q := d.Bun.NewSelect().
		Model(&tickets).
		Relation("Faction").
		Relation("Order").
		Relation("Order.TicketType").
		Order("ticket.ticket_number DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Scan(ctx)
	return tickets, err
}

type TicketStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
}

func (d *DB) GetTicketStats(ctx context.Context) (TicketStats, error) {
	var stats TicketStats
	total, err := d.Bun.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	if err != nil {
		return stats, err
	}
	verified, err := d.Bun.NewSelect().Model((*models.Ticket)(nil)).Where("is_verified = ?", true).Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = total
	stats.Verified = verified
	return stats, nil
}
