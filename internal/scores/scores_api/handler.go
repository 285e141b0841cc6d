package scores_api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/scores"
	"dreamstate-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ScoreService interface {
	AddEvent(ctx context.Context, factionID, points int64, description string) (*models.FactionScoreEvent, error)
	EditEvent(ctx context.Context, eventID, factionID, points int64, description string) (*models.FactionScoreEvent, error)
	DeleteEvent(ctx context.Context, eventID int64) error
	GetEvent(ctx context.Context, eventID int64) (*models.FactionScoreEvent, error)
	Timeline(ctx context.Context, factionID *int64) ([]models.FactionScoreEvent, error)
	History(ctx context.Context, factionID int64) (*scores.FactionHistory, error)
	Scoreboard(ctx context.Context) ([]models.FactionScore, error)
}

// Subscriber hands out scoreboard snapshots until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan []models.FactionScore
}

type Handler struct {
	ScoreService ScoreService
	Emitter      Subscriber
	Logger       *logger.Logger
}

func NewHandler(scoreService ScoreService, emitter Subscriber, log *logger.Logger) *Handler {
	return &Handler{ScoreService: scoreService, Emitter: emitter, Logger: log}
}

// RegisterRoutes mounts the public scoreboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/factions", func(r chi.Router) {
		r.Get("/scores", h.GetScoreboard)
		r.Get("/scores/stream", h.StreamScoreboard)
		r.Get("/events", h.GetTimeline)
		r.Get("/events/{eventId}", h.GetEvent)
		r.Get("/{factionId}/events", h.GetFactionHistory)
	})
}

// RegisterAdminRoutes mounts ledger mutations; callers put them behind admin auth.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/factions", func(r chi.Router) {
		r.Post("/score", h.AddEvent)
		r.Put("/events/{eventId}", h.EditEvent)
		r.Delete("/events/{eventId}", h.DeleteEvent)
	})
}

type scoreRequest struct {
	FactionID   int64  `json:"factionId"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s", key))
	}
	return id, nil
}

func (h *Handler) fail(w http.ResponseWriter, op, message string, err error) {
	if apperr.Is(err, apperr.KindInternal) {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, message, err)
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.ScoreService.Scoreboard(r.Context())
	if err != nil {
		h.fail(w, "GetScoreboard", "Failed to load scores", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faction scores", board)
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.ScoreService.Timeline(r.Context(), nil)
	if err != nil {
		h.fail(w, "GetTimeline", "Failed to load score events", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Score events", events)
}

func (h *Handler) GetFactionHistory(w http.ResponseWriter, r *http.Request) {
	factionID, err := pathID(r, "factionId")
	if err != nil {
		utils.WriteError(w, "Invalid faction", err)
		return
	}
	history, err := h.ScoreService.History(r.Context(), factionID)
	if err != nil {
		h.fail(w, "GetFactionHistory", "Failed to load faction history", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faction history", history)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	event, err := h.ScoreService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.fail(w, "GetEvent", "Failed to load score event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Score event", event)
}

func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid score event", err)
		return
	}
	event, err := h.ScoreService.AddEvent(r.Context(), req.FactionID, req.Points, req.Description)
	if err != nil {
		h.fail(w, "AddEvent", "Failed to add score event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Score event added", event)
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	var req scoreRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid score event", err)
		return
	}
	event, err := h.ScoreService.EditEvent(r.Context(), eventID, req.FactionID, req.Points, req.Description)
	if err != nil {
		h.fail(w, "EditEvent", "Failed to update score event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Score event updated", event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}
	if err := h.ScoreService.DeleteEvent(r.Context(), eventID); err != nil {
		h.fail(w, "DeleteEvent", "Failed to delete score event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Score event deleted", nil)
}
