package factions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/models"

	"github.com/go-redis/redis/v8"
)

const rosterCacheKey = "factions:roster"

type factionLister interface {
	ListFactions(ctx context.Context) ([]models.Faction, error)
}

// Source loads the roster from the database, caching it in Redis when a client is set.
type Source struct {
	Store  factionLister
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSource(store factionLister, client *redis.Client, ttl time.Duration, log *logger.Logger) *Source {
	return &Source{Store: store, Redis: client, TTL: ttl, Logger: log}
}

func (s *Source) Roster(ctx context.Context) (*Roster, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, rosterCacheKey).Bytes(); err == nil {
			var factions []models.Faction
			if err := json.Unmarshal(cached, &factions); err == nil {
				if roster, err := NewRoster(factions); err == nil {
					return roster, nil
				}
			}
			s.Logger.Warn("FACTIONS", "Discarding unreadable cached roster")
		} else if err != redis.Nil {
			s.Logger.Warn("FACTIONS", fmt.Sprintf("Roster cache read failed: %v", err))
		}
	}

	factions, err := s.Store.ListFactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	roster, err := NewRoster(factions)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(factions); err == nil {
			if err := s.Redis.Set(ctx, rosterCacheKey, payload, s.TTL).Err(); err != nil {
				s.Logger.Warn("FACTIONS", fmt.Sprintf("Roster cache write failed: %v", err))
			}
		}
	}
	return roster, nil
}
