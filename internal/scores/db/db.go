package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dreamstate-ticketing/internal/models"

	"github.com/uptrace/bun"
)

var ErrEventNotFound = errors.New("score event not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) AddEvent(ctx context.Context, event *models.FactionScoreEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// UpdateEvent rewrites faction, points and description. created_at keeps the event's place in the timeline.
func (d *DB) UpdateEvent(ctx context.Context, event *models.FactionScoreEvent) error {
	res, err := d.Bun.NewUpdate().
		Model(event).
		Column("faction_id", "points", "description").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.FactionScoreEvent)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (d *DB) GetEvent(ctx context.Context, id int64) (*models.FactionScoreEvent, error) {
	var event models.FactionScoreEvent
	err := d.Bun.NewSelect().Model(&event).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CurrentScore folds a faction's events into its score.
func (d *DB) CurrentScore(ctx context.Context, factionID int64) (int64, error) {
	var score int64
	err := d.Bun.NewSelect().
		Model((*models.FactionScoreEvent)(nil)).
		ColumnExpr("COALESCE(SUM(points), 0)").
		Where("faction_id = ?", factionID).
		Scan(ctx, &score)
	return score, err
}

type totalRow struct {
	FactionID int64 `bun:"faction_id"`
	Total     int64 `bun:"total"`
}

// Totals is CurrentScore for every faction with at least one event.
func (d *DB) Totals(ctx context.Context) (map[int64]int64, error) {
	var rows []totalRow
	err := d.Bun.NewSelect().
		Model((*models.FactionScoreEvent)(nil)).
		Column("faction_id").
		ColumnExpr("COALESCE(SUM(points), 0) AS total").
		Group("faction_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.FactionID] = r.Total
	}
	return out, nil
}

// Timeline lists events newest first, for one faction or all of them when factionID is nil.
func (d *DB) Timeline(ctx context.Context, factionID *int64) ([]models.FactionScoreEvent, error) {
	events := []models.FactionScoreEvent{}
	q := d.Bun.NewSelect().
		Model(&events).
		Relation("Faction").
		Order("faction_score_event.created_at DESC", "faction_score_event.id DESC")
	if factionID != nil {
		q = q.Where("faction_score_event.faction_id = ?", *factionID)
	}
	err := q.Scan(ctx)
	return events, err
}
