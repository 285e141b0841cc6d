package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/order/db"
)

// MaxTicketsPerCheckout caps the quantity of a single checkout session.
const MaxTicketsPerCheckout = 10

// Metadata keys written on the checkout session and read back by the webhook.
const (
	MetadataTicketTypeID = "ticketTypeId"
	MetadataQuantity     = "quantity"
)

type CheckoutRequest struct {
	TicketTypeID  int64  `json:"ticketTypeId"`
	Quantity      int    `json:"quantity"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CheckoutParams is what the payment provider needs to open a hosted checkout.
type CheckoutParams struct {
	PriceID       string
	Quantity      int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

// CreateCheckoutSession opens a hosted checkout for an active ticket type with stock left.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	email := strings.TrimSpace(req.CustomerEmail)
	switch {
	case req.TicketTypeID < 1:
		return nil, apperr.Validation("ticket type id is required")
	case req.Quantity < 1 || req.Quantity > MaxTicketsPerCheckout:
		return nil, apperr.Validation(fmt.Sprintf("quantity must be between 1 and %d", MaxTicketsPerCheckout))
	case email != "" && !strings.Contains(email, "@"):
		return nil, apperr.Validation("customer email is invalid")
	}
	if s.Checkout == nil {
		return nil, apperr.Internal("create checkout session", errors.New("payment provider is not configured"))
	}

	ticketType, err := s.DB.GetTicketType(ctx, s.DB.Conn(), req.TicketTypeID)
	if errors.Is(err, db.ErrTicketTypeNotFound) || (err == nil && !ticketType.IsActive) {
		return nil, apperr.NotFound("ticket type not found or inactive")
	}
	if err != nil {
		return nil, apperr.Internal("load ticket type", err)
	}

	if ticketType.TotalInventory != nil {
		sold, err := s.DB.SoldQuantity(ctx, s.DB.Conn(), ticketType.ID)
		if err != nil {
			return nil, apperr.Internal("sold quantity", err)
		}
		if remaining := *ticketType.TotalInventory - sold; remaining < int64(req.Quantity) {
			if remaining < 0 {
				remaining = 0
			}
			return nil, apperr.Conflict(fmt.Sprintf("only %d tickets remaining", remaining))
		}
	}

	base := strings.TrimRight(s.SiteBaseURL, "/")
	session, err := s.Checkout.CreateCheckoutSession(ctx, CheckoutParams{
		PriceID:       ticketType.StripePriceID,
		Quantity:      int64(req.Quantity),
		CustomerEmail: email,
		SuccessURL:    base + "/thank-you?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/?canceled=true",
		Metadata: map[string]string{
			MetadataTicketTypeID: strconv.FormatInt(ticketType.ID, 10),
			MetadataQuantity:     strconv.Itoa(req.Quantity),
		},
	})
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to create checkout session for ticket type %d: %v", ticketType.ID, err))
		return nil, apperr.Internal("create checkout session", err)
	}

	s.logger.LogOrder("CHECKOUT", session.SessionID, fmt.Sprintf("Checkout opened for %d x %s", req.Quantity, ticketType.Name))
	return session, nil
}

type TicketAvailability struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Currency       string `json:"currency"`
	PriceMinor     int64  `json:"priceMinor"`
	TotalInventory *int64 `json:"totalInventory"`
	Sold           int64  `json:"sold"`
	Remaining      *int64 `json:"remaining"`
	SoldOut        bool   `json:"soldOut"`
}

// Availability lists active ticket types with what is left of each. Remaining is nil when unlimited.
func (s *OrderService) Availability(ctx context.Context) ([]TicketAvailability, error) {
	types, err := s.DB.ListTicketTypes(ctx, true)
	if err != nil {
		return nil, apperr.Internal("list ticket types", err)
	}
	sold, err := s.DB.SoldByTicketType(ctx)
	if err != nil {
		return nil, apperr.Internal("sold by ticket type", err)
	}

	out := make([]TicketAvailability, 0, len(types))
	for _, t := range types {
		remaining := t.Remaining(sold[t.ID])
		out = append(out, TicketAvailability{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			Currency:       t.Currency,
			PriceMinor:     t.BasePriceMinor,
			TotalInventory: t.TotalInventory,
			Sold:           sold[t.ID],
			Remaining:      remaining,
			SoldOut:        remaining != nil && *remaining == 0,
		})
	}
	return out, nil
}

type OrderTicketView struct {
	TicketNumber int64                 `json:"ticketNumber"`
	Faction      models.FactionSummary `json:"faction"`
	Verified     bool                  `json:"verified"`
}

type OrderView struct {
	SessionID    string             `json:"sessionId"`
	Status       models.OrderStatus `json:"status"`
	CustomerName string             `json:"customerName,omitempty"`
	TicketType   string             `json:"ticketType"`
	Quantity     int                `json:"quantity"`
	Tickets      []OrderTicketView  `json:"tickets"`
}

// OrderBySession backs the thank-you page. Verification tokens stay out of the view.
func (s *OrderService) OrderBySession(ctx context.Context, sessionID string) (*OrderView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validation("session_id is required")
	}
	order, err := s.DB.GetOrderWithTickets(ctx, sessionID)
	if errors.Is(err, db.ErrOrderNotFound) {
		return nil, apperr.NotFound("no order found for this session yet")
	}
	if err != nil {
		return nil, apperr.Internal("load order", err)
	}
	if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusPaidInPerson {
		return nil, apperr.Validation("payment has not been completed for this order")
	}

	view := &OrderView{
		SessionID:    order.StripeCheckoutSessionID,
		Status:       order.Status,
		CustomerName: order.Name(),
		Quantity:     order.Quantity,
		Tickets:      make([]OrderTicketView, 0, len(order.Tickets)),
	}
	if order.TicketType != nil {
		view.TicketType = order.TicketType.Name
	}
	for _, t := range order.Tickets {
		tv := OrderTicketView{TicketNumber: t.TicketNumber, Verified: t.IsVerified}
		if t.Faction != nil {
			tv.Faction = t.Faction.Summary()
		}
		view.Tickets = append(view.Tickets, tv)
	}
	return view, nil
}
