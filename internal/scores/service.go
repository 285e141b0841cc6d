// Package scores keeps the faction score ledger. A faction's score is always
// recomputed from its events; no running total is stored.
package scores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/kafka"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/metrics"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/scores/db"
)

const maxDescriptionLength = 500

type ScoreDBLayer interface {
	AddEvent(ctx context.Context, event *models.FactionScoreEvent) error
	UpdateEvent(ctx context.Context, event *models.FactionScoreEvent) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEvent(ctx context.Context, id int64) (*models.FactionScoreEvent, error)
	CurrentScore(ctx context.Context, factionID int64) (int64, error)
	Totals(ctx context.Context) (map[int64]int64, error)
	Timeline(ctx context.Context, factionID *int64) ([]models.FactionScoreEvent, error)
}

type FactionLookup interface {
	ListFactions(ctx context.Context) ([]models.Faction, error)
	GetFaction(ctx context.Context, id int64) (*models.Faction, error)
}

type Broadcaster interface {
	Broadcast(scores []models.FactionScore)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

type ScoreService struct {
	DB       ScoreDBLayer
	Factions FactionLookup
	Emitter  Broadcaster
	Producer EventPublisher
	Topic    string
	logger   *logger.Logger
}

func NewScoreService(db ScoreDBLayer, factions FactionLookup, log *logger.Logger) *ScoreService {
	return &ScoreService{DB: db, Factions: factions, logger: log}
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperr.Validation("description is required")
	}
	if len(description) > maxDescriptionLength {
		return "", apperr.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return description, nil
}

func (s *ScoreService) requireFaction(ctx context.Context, id int64) (*models.Faction, error) {
	if id < 1 {
		return nil, apperr.Validation("faction id is required")
	}
	faction, err := s.Factions.GetFaction(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Internal("load faction", err)
	}
	return faction, nil
}

// AddEvent appends a signed point delta to a faction.
func (s *ScoreService) AddEvent(ctx context.Context, factionID, points int64, description string) (*models.FactionScoreEvent, error) {
	description, err := normalizeDescription(description)
	if err != nil {
		return nil, err
	}
	faction, err := s.requireFaction(ctx, factionID)
	if err != nil {
		return nil, err
	}

	event := &models.FactionScoreEvent{FactionID: faction.ID, Points: points, Description: description}
	if err := s.DB.AddEvent(ctx, event); err != nil {
		return nil, apperr.Internal("add score event", err)
	}
	event.Faction = faction

	s.logger.LogScore("ADD", faction.ID, fmt.Sprintf("%+d %s (event %d)", points, description, event.ID))
	s.afterChange(ctx, "add", event)
	return event, nil
}

// EditEvent rewrites an event in place, possibly moving it to another faction.
func (s *ScoreService) EditEvent(ctx context.Context, eventID, factionID, points int64, description string) (*models.FactionScoreEvent, error) {
	description, err := normalizeDescription(description)
	if err != nil {
		return nil, err
	}
	existing, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	faction, err := s.requireFaction(ctx, factionID)
	if err != nil {
		return nil, err
	}

	existing.FactionID = faction.ID
	existing.Points = points
	existing.Description = description
	if err := s.DB.UpdateEvent(ctx, existing); err != nil {
		if errors.Is(err, db.ErrEventNotFound) {
			return nil, apperr.NotFound("score event not found")
		}
		return nil, apperr.Internal("update score event", err)
	}
	existing.Faction = faction

	s.logger.LogScore("EDIT", faction.ID, fmt.Sprintf("event %d now %+d %s", existing.ID, points, description))
	s.afterChange(ctx, "edit", existing)
	return existing, nil
}

func (s *ScoreService) DeleteEvent(ctx context.Context, eventID int64) error {
	existing, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		if errors.Is(err, db.ErrEventNotFound) {
			return apperr.NotFound("score event not found")
		}
		return apperr.Internal("delete score event", err)
	}

	s.logger.LogScore("DELETE", existing.FactionID, fmt.Sprintf("event %d (%+d) removed", existing.ID, existing.Points))
	s.afterChange(ctx, "delete", existing)
	return nil
}

func (s *ScoreService) GetEvent(ctx context.Context, eventID int64) (*models.FactionScoreEvent, error) {
	if eventID < 1 {
		return nil, apperr.Validation("invalid event id")
	}
	event, err := s.DB.GetEvent(ctx, eventID)
	if errors.Is(err, db.ErrEventNotFound) {
		return nil, apperr.NotFound("score event not found")
	}
	if err != nil {
		return nil, apperr.Internal("load score event", err)
	}
	return event, nil
}

func (s *ScoreService) CurrentScore(ctx context.Context, factionID int64) (int64, error) {
	score, err := s.DB.CurrentScore(ctx, factionID)
	if err != nil {
		return 0, apperr.Internal("current score", err)
	}
	return score, nil
}

// Timeline lists events newest first; a nil factionID means every faction.
func (s *ScoreService) Timeline(ctx context.Context, factionID *int64) ([]models.FactionScoreEvent, error) {
	if factionID != nil {
		if _, err := s.requireFaction(ctx, *factionID); err != nil {
			return nil, err
		}
	}
	events, err := s.DB.Timeline(ctx, factionID)
	if err != nil {
		return nil, apperr.Internal("score timeline", err)
	}
	return events, nil
}

type FactionHistory struct {
	Faction models.Faction             `json:"faction"`
	Score   int64                      `json:"score"`
	Events  []models.FactionScoreEvent `json:"events"`
}

// History is one faction's score together with the events it is folded from.
func (s *ScoreService) History(ctx context.Context, factionID int64) (*FactionHistory, error) {
	faction, err := s.requireFaction(ctx, factionID)
	if err != nil {
		return nil, err
	}
	events, err := s.DB.Timeline(ctx, &factionID)
	if err != nil {
		return nil, apperr.Internal("score timeline", err)
	}
	var score int64
	for _, e := range events {
		score += e.Points
	}
	return &FactionHistory{Faction: *faction, Score: score, Events: events}, nil
}

// Scoreboard returns every faction in sort_order with its current score.
func (s *ScoreService) Scoreboard(ctx context.Context) ([]models.FactionScore, error) {
	factions, err := s.Factions.ListFactions(ctx)
	if err != nil {
		return nil, apperr.Internal("list factions", err)
	}
	totals, err := s.DB.Totals(ctx)
	if err != nil {
		return nil, apperr.Internal("score totals", err)
	}

	board := make([]models.FactionScore, 0, len(factions))
	for _, f := range factions {
		board = append(board, models.FactionScore{Faction: f.Summary(), Score: totals[f.ID]})
	}
	return board, nil
}

func (s *ScoreService) afterChange(ctx context.Context, action string, event *models.FactionScoreEvent) {
	metrics.ScoreEvents.WithLabelValues(action).Inc()

	if s.Emitter != nil {
		board, err := s.Scoreboard(ctx)
		if err != nil {
			s.logger.Warn("SCORES", fmt.Sprintf("Scoreboard refresh failed after %s: %v", action, err))
		} else {
			s.Emitter.Broadcast(board)
		}
	}

	if s.Producer != nil && s.Topic != "" {
		msg := kafka.FactionScoredEvent{
			Action:      action,
			EventID:     event.ID,
			FactionID:   event.FactionID,
			Points:      event.Points,
			Description: event.Description,
			OccurredAt:  time.Now().UTC(),
		}
		if err := s.Producer.PublishJSON(context.WithoutCancel(ctx), s.Topic, fmt.Sprint(event.FactionID), msg); err != nil {
			s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish score %s for event %d: %v", action, event.ID, err))
		}
	}
}
