package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/metrics"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/order/db"
	"dreamstate-ticketing/internal/utils"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompletedCheckout is the part of a paid Stripe checkout session needed to issue tickets.
type CompletedCheckout struct {
	SessionID        string
	PaymentReference string
	TicketTypeID     int64
	Quantity         int
	CustomerEmail    string
	CustomerName     string
}

type FulfillmentOutcome struct {
	AlreadyProcessed bool
	Order            *models.Order
	Tickets          []*models.Ticket
}

func (c CompletedCheckout) validate() error {
	switch {
	case c.SessionID == "":
		return apperr.Validation("checkout session id is required")
	case c.TicketTypeID < 1:
		return apperr.Validation("ticket type id is required")
	case c.Quantity < 1:
		return apperr.Validation("quantity must be at least 1")
	case strings.TrimSpace(c.CustomerEmail) == "":
		return apperr.Validation("customer email is required")
	}
	return nil
}

// FulfillCheckout turns a completed checkout into an order and its tickets exactly once per session id.
func (s *OrderService) FulfillCheckout(ctx context.Context, c CompletedCheckout) (*FulfillmentOutcome, error) {
	if err := c.validate(); err != nil {
		metrics.Fulfillments.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if s.Locks != nil {
		owner := uuid.NewString()
		locked, err := s.Locks.LockFulfillment(ctx, c.SessionID, owner)
		if err != nil {
			s.logger.Warn("ORDER", fmt.Sprintf("Fulfillment lock unavailable for %s, relying on database: %v", c.SessionID, err))
		} else if !locked {
			s.logger.LogOrder("LOCKED", c.SessionID, "Another delivery is processing this session")
			return nil, apperr.Conflict("checkout session is already being processed")
		} else {
			defer func() {
				if err := s.Locks.UnlockFulfillment(context.WithoutCancel(ctx), c.SessionID, owner); err != nil {
					s.logger.Warn("ORDER", fmt.Sprintf("Failed to release fulfillment lock for %s: %v", c.SessionID, err))
				}
			}()
		}
	}

	roster, err := s.Roster.Roster(ctx)
	if err != nil {
		metrics.Fulfillments.WithLabelValues("failed").Inc()
		return nil, apperr.Internal("load faction roster", err)
	}

	outcome := &FulfillmentOutcome{}
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.DB.GetOrderBySession(ctx, tx, c.SessionID)
		if err == nil {
			outcome.AlreadyProcessed = true
			outcome.Order = existing
			return nil
		}
		if !errors.Is(err, db.ErrOrderNotFound) {
			return fmt.Errorf("check existing order: %w", err)
		}

		ticketType, err := s.DB.LockTicketType(ctx, tx, c.TicketTypeID)
		if errors.Is(err, db.ErrTicketTypeNotFound) {
			return apperr.NotFound(fmt.Sprintf("ticket type %d not found", c.TicketTypeID))
		}
		if err != nil {
			return fmt.Errorf("load ticket type: %w", err)
		}

		if ticketType.TotalInventory != nil {
			sold, err := s.DB.SoldQuantity(ctx, tx, ticketType.ID)
			if err != nil {
				return fmt.Errorf("sold quantity: %w", err)
			}
			remaining := *ticketType.TotalInventory - sold
			if remaining < int64(c.Quantity) {
				s.logger.Error("ORDER", fmt.Sprintf("Paid session %s needs manual reconciliation: %d remaining, %d requested", c.SessionID, remaining, c.Quantity))
				return apperr.Conflict("inventory exhausted")
			}
		}

		order := &models.Order{
			StripeCheckoutSessionID: c.SessionID,
			CustomerEmail:           utils.NormalizeEmail(c.CustomerEmail),
			TicketTypeID:            ticketType.ID,
			Quantity:                c.Quantity,
			Status:                  models.OrderStatusPaid,
		}
		if c.PaymentReference != "" {
			ref := c.PaymentReference
			order.StripePaymentIntentID = &ref
		}
		if name := strings.TrimSpace(c.CustomerName); name != "" {
			order.CustomerName = &name
		}
		if err := s.DB.CreateOrder(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.TicketType = ticketType

		tickets, err := s.issueTickets(ctx, tx, order, roster, models.PurchaseOnline)
		if err != nil {
			return err
		}
		outcome.Order = order
		outcome.Tickets = tickets
		return nil
	})

	if err != nil && database.IsUniqueViolation(err) {
		// A concurrent delivery of the same session committed first.
		if existing, lookupErr := s.DB.GetOrderBySession(ctx, s.DB.Conn(), c.SessionID); lookupErr == nil {
			outcome = &FulfillmentOutcome{AlreadyProcessed: true, Order: existing}
			err = nil
		}
	}
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			metrics.Fulfillments.WithLabelValues("rejected").Inc()
			s.logger.LogOrder("REJECTED", c.SessionID, appErr.Error())
			return nil, err
		}
		metrics.Fulfillments.WithLabelValues("failed").Inc()
		s.logger.LogOrder("FAILED", c.SessionID, err.Error())
		return nil, apperr.Internal("fulfill checkout "+c.SessionID, err)
	}

	if outcome.AlreadyProcessed {
		metrics.Fulfillments.WithLabelValues("duplicate").Inc()
		s.logger.LogOrder("DUPLICATE", c.SessionID, fmt.Sprintf("Order %d already processed", outcome.Order.ID))
		return outcome, nil
	}

	metrics.Fulfillments.WithLabelValues("fulfilled").Inc()
	metrics.TicketsIssued.WithLabelValues(string(models.PurchaseOnline)).Add(float64(len(outcome.Tickets)))
	s.logger.LogOrder("FULFILLED", c.SessionID, fmt.Sprintf("Order %d issued %d tickets starting at #%d",
		outcome.Order.ID, len(outcome.Tickets), outcome.Tickets[0].TicketNumber))

	s.afterCommit(ctx, outcome.Order, outcome.Tickets)
	return outcome, nil
}

type RedeemRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	TicketTypeID int64  `json:"ticketTypeId"`
}

type RedemptionResult struct {
	Order  *models.Order  `json:"order"`
	Ticket *models.Ticket `json:"ticket"`
}

// RedeemInPerson issues a single door-sale ticket, at most one per normalized email.
func (s *OrderService) RedeemInPerson(ctx context.Context, req RedeemRequest) (*RedemptionResult, error) {
	name := strings.TrimSpace(req.Name)
	email := utils.NormalizeEmail(req.Email)
	switch {
	case name == "":
		return nil, apperr.Validation("name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperr.Validation("a valid email is required")
	case req.TicketTypeID < 1:
		return nil, apperr.Validation("ticket type id is required")
	}

	if s.Locks != nil {
		owner := uuid.NewString()
		locked, err := s.Locks.LockRedemption(ctx, email, owner)
		if err != nil {
			s.logger.Warn("ORDER", fmt.Sprintf("Redemption lock unavailable for %s, relying on database: %v", email, err))
		} else if !locked {
			return nil, apperr.Conflict("a redemption for this email is already in progress")
		} else {
			defer func() {
				if err := s.Locks.UnlockRedemption(context.WithoutCancel(ctx), email, owner); err != nil {
					s.logger.Warn("ORDER", fmt.Sprintf("Failed to release redemption lock for %s: %v", email, err))
				}
			}()
		}
	}

	roster, err := s.Roster.Roster(ctx)
	if err != nil {
		return nil, apperr.Internal("load faction roster", err)
	}

	result := &RedemptionResult{}
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.DB.InPersonRedemptionExists(ctx, tx, email)
		if err != nil {
			return fmt.Errorf("check redemption: %w", err)
		}
		if exists {
			return apperr.Conflict("a ticket has already been redeemed for this email")
		}

		ticketType, err := s.DB.GetTicketType(ctx, tx, req.TicketTypeID)
		if errors.Is(err, db.ErrTicketTypeNotFound) {
			return apperr.NotFound(fmt.Sprintf("ticket type %d not found", req.TicketTypeID))
		}
		if err != nil {
			return fmt.Errorf("load ticket type: %w", err)
		}

		order := &models.Order{
			StripeCheckoutSessionID: utils.GenerateInPersonSessionID(),
			CustomerEmail:           email,
			CustomerName:            &name,
			TicketTypeID:            ticketType.ID,
			Quantity:                1,
			Status:                  models.OrderStatusPaidInPerson,
		}
		if err := s.DB.CreateOrder(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.TicketType = ticketType

		tickets, err := s.issueTickets(ctx, tx, order, roster, models.PurchaseInPerson)
		if err != nil {
			return err
		}
		result.Order = order
		result.Ticket = tickets[0]
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a ticket has already been redeemed for this email")
		}
		s.logger.Error("ORDER", fmt.Sprintf("In-person redemption for %s failed: %v", email, err))
		return nil, apperr.Internal("redeem in person", err)
	}

	metrics.TicketsIssued.WithLabelValues(string(models.PurchaseInPerson)).Inc()
	s.logger.LogTicket("REDEEMED", result.Ticket.TicketNumber, fmt.Sprintf("In-person ticket for %s assigned to %s", email, result.Ticket.Faction.DisplayName))

	s.afterCommit(ctx, result.Order, []*models.Ticket{result.Ticket})
	return result, nil
}
