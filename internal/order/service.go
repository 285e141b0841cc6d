package order

import (
	"context"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/factions"
	"dreamstate-ticketing/internal/kafka"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/metrics"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/utils"

	"github.com/uptrace/bun"
)

type DBLayer interface {
	Conn() bun.IDB
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	GetOrderBySession(ctx context.Context, idb bun.IDB, sessionID string) (*models.Order, error)
	GetOrderWithTickets(ctx context.Context, sessionID string) (*models.Order, error)
	CreateOrder(ctx context.Context, idb bun.IDB, order *models.Order) error
	InPersonRedemptionExists(ctx context.Context, idb bun.IDB, email string) (bool, error)
	GetTicketType(ctx context.Context, idb bun.IDB, id int64) (*models.TicketType, error)
	LockTicketType(ctx context.Context, idb bun.IDB, id int64) (*models.TicketType, error)
	ListTicketTypes(ctx context.Context, activeOnly bool) ([]models.TicketType, error)
	SoldQuantity(ctx context.Context, idb bun.IDB, ticketTypeID int64) (int64, error)
	SoldByTicketType(ctx context.Context) (map[int64]int64, error)
}

type TicketDBLayer interface {
	NextTicketNumber(ctx context.Context, idb bun.IDB) (int64, error)
	CreateTicket(ctx context.Context, idb bun.IDB, ticket *models.Ticket) error
}

type RosterSource interface {
	Roster(ctx context.Context) (*factions.Roster, error)
}

type Locker interface {
	LockFulfillment(ctx context.Context, sessionID, owner string) (bool, error)
	UnlockFulfillment(ctx context.Context, sessionID, owner string) error
	LockRedemption(ctx context.Context, email, owner string) (bool, error)
	UnlockRedemption(ctx context.Context, email, owner string) error
}

type ConfirmationSender interface {
	SendTicketConfirmation(ctx context.Context, order *models.Order, tickets []*models.Ticket) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

type OrderService struct {
	DB      DBLayer
	Tickets TicketDBLayer
	Roster  RosterSource
	logger  *logger.Logger

	// Optional collaborators. A nil value switches the feature off.
	Locks    Locker
	Notifier ConfirmationSender
	Producer EventPublisher
	Checkout CheckoutProvider

	Topics        config.TopicConfig
	SiteBaseURL   string
	WebhookSecret string
	NotifyTimeout time.Duration

	newToken func() (string, error)
}

func NewOrderService(db DBLayer, tickets TicketDBLayer, roster RosterSource, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:            db,
		Tickets:       tickets,
		Roster:        roster,
		logger:        log,
		NotifyTimeout: 30 * time.Second,
		newToken:      utils.GenerateVerificationToken,
	}
}

// issueTickets numbers, assigns and stores one ticket per unit of the order inside tx.
func (s *OrderService) issueTickets(ctx context.Context, tx bun.Tx, order *models.Order, roster *factions.Roster, method models.PurchaseMethod) ([]*models.Ticket, error) {
	tickets := make([]*models.Ticket, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		number, err := s.Tickets.NextTicketNumber(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("next ticket number: %w", err)
		}
		faction, err := roster.ForTicket(number)
		if err != nil {
			return nil, err
		}
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("verification token: %w", err)
		}

		ticket := &models.Ticket{
			OrderID:           order.ID,
			TicketNumber:      number,
			AssignedFactionID: faction.ID,
			VerificationToken: token,
			PurchaseMethod:    method,
		}
		if err := s.Tickets.CreateTicket(ctx, tx, ticket); err != nil {
			return nil, fmt.Errorf("create ticket %d: %w", number, err)
		}
		f := faction
		ticket.Faction = &f
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// afterCommit sends the confirmation and publishes the fulfilled event. Neither can undo the order.
func (s *OrderService) afterCommit(ctx context.Context, order *models.Order, tickets []*models.Ticket) {
	ctx = context.WithoutCancel(ctx)

	if s.Notifier != nil {
		sendCtx, cancel := context.WithTimeout(ctx, s.NotifyTimeout)
		err := s.Notifier.SendTicketConfirmation(sendCtx, order, tickets)
		cancel()
		if err != nil {
			metrics.NotificationFailures.Inc()
			s.logger.Error("EMAIL", fmt.Sprintf("Failed to send confirmation for order %d to %s: %v", order.ID, order.CustomerEmail, err))
		} else {
			s.logger.Info("EMAIL", fmt.Sprintf("Confirmation sent for order %d", order.ID))
		}
	}

	if s.Producer != nil && s.Topics.OrderFulfilled != "" {
		numbers := make([]int64, len(tickets))
		for i, t := range tickets {
			numbers[i] = t.TicketNumber
		}
		event := kafka.OrderFulfilledEvent{
			OrderID:       order.ID,
			SessionID:     order.StripeCheckoutSessionID,
			Status:        string(order.Status),
			TicketTypeID:  order.TicketTypeID,
			Quantity:      order.Quantity,
			TicketNumbers: numbers,
			FulfilledAt:   order.CreatedAt,
		}
		if err := s.Producer.PublishJSON(ctx, s.Topics.OrderFulfilled, order.StripeCheckoutSessionID, event); err != nil {
			s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish fulfilled event for order %d: %v", order.ID, err))
		}
	}
}
