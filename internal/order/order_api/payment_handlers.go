package order_api

import (
	"errors"
	"fmt"
	"net/http"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/order"
	"dreamstate-ticketing/internal/utils"
)

// CreateCheckoutSession opens a Stripe hosted checkout and returns its redirect URL.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req order.CheckoutRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid checkout request", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateCheckoutSession: ticketType=%d quantity=%d", req.TicketTypeID, req.Quantity))

	session, err := h.OrderService.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			h.Logger.Error("API", fmt.Sprintf("CreateCheckoutSession: %v", err))
		}
		utils.WriteError(w, "Could not start checkout", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Checkout session created", session)
}

// StripeWebhook handles webhook events from Stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	err := h.OrderService.HandleStripeWebhook(r)
	if err != nil {
		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Error("API", fmt.Sprintf("StripeWebhook: category=%s status=%d: %s",
				webhookErr.Category, webhookErr.StatusCode, webhookErr.InternalError))
			utils.WriteJSON(w, webhookErr.StatusCode, utils.ErrorResponse("Webhook rejected", webhookErr.PublicError))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Webhook rejected", "webhook processing error"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
