package factions

import (
	"context"
	"database/sql"
	"errors"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type Store struct {
	Bun *bun.DB
}

// ListFactions returns all factions in sort_order.
func (s *Store) ListFactions(ctx context.Context) ([]models.Faction, error) {
	var factions []models.Faction
	err := s.Bun.NewSelect().
		Model(&factions).
		Order("sort_order ASC").
		Scan(ctx)
	return factions, err
}

func (s *Store) GetFaction(ctx context.Context, id int64) (*models.Faction, error) {
	var faction models.Faction
	err := s.Bun.NewSelect().Model(&faction).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("faction not found")
	}
	if err != nil {
		return nil, err
	}
	return &faction, nil
}
