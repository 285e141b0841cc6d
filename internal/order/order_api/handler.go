package order_api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/order"
	"dreamstate-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

// OrderService is the part of order.OrderService the HTTP layer drives.
type OrderService interface {
	Availability(ctx context.Context) ([]order.TicketAvailability, error)
	CreateCheckoutSession(ctx context.Context, req order.CheckoutRequest) (*order.CheckoutSession, error)
	HandleStripeWebhook(r *http.Request) error
	OrderBySession(ctx context.Context, sessionID string) (*order.OrderView, error)
	RedeemInPerson(ctx context.Context, req order.RedeemRequest) (*order.RedemptionResult, error)
}

type Handler struct {
	OrderService OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

// RegisterRoutes mounts the public order routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tickets/availability", h.Availability)
	r.Post("/checkout/session", h.CreateCheckoutSession)
	r.Post("/webhooks/stripe", h.StripeWebhook)
	r.Get("/order/by-session", h.GetOrderBySession)
}

// RegisterAdminRoutes mounts routes that must sit behind the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/redeem", h.RedeemInPerson)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	types, err := h.OrderService.Availability(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Availability: %v", err))
		utils.WriteError(w, "Failed to load ticket availability", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket availability", types)
}

func (h *Handler) GetOrderBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	h.Logger.Debug("API", fmt.Sprintf("GetOrderBySession: session_id=%s", sessionID))

	view, err := h.OrderService.OrderBySession(r.Context(), sessionID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) && !apperr.Is(err, apperr.KindValidation) {
			h.Logger.Error("API", fmt.Sprintf("GetOrderBySession: %v", err))
		}
		utils.WriteError(w, "Order lookup failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order found", view)
}

func (h *Handler) RedeemInPerson(w http.ResponseWriter, r *http.Request) {
	var req order.RedeemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid redemption request", err)
		return
	}

	result, err := h.OrderService.RedeemInPerson(r.Context(), req)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			h.Logger.Error("API", fmt.Sprintf("RedeemInPerson: %v", err))
		}
		utils.WriteError(w, "Redemption failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket issued", result)
}
