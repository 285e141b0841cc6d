package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/auth"
	"dreamstate-ticketing/internal/kafka"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/metrics"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/tickets/db"
)

type TicketDBLayer interface {
	GetTicketByToken(ctx context.Context, token string) (*models.Ticket, error)
	MarkVerified(ctx context.Context, ticketID int64, at time.Time) (bool, error)
	ListTickets(ctx context.Context, limit, offset int) ([]*models.Ticket, error)
	GetTicketStats(ctx context.Context) (db.TicketStats, error)
}

// CredentialValidator checks the admin credential presented at the door.
type CredentialValidator interface {
	Validate(ctx context.Context, credential string) (*auth.Claims, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

type TicketService struct {
	DB       TicketDBLayer
	Admin    CredentialValidator
	Producer EventPublisher
	Topic    string
	logger   *logger.Logger
	now      func() time.Time
}

func NewTicketService(db TicketDBLayer, admin CredentialValidator, log *logger.Logger) *TicketService {
	return &TicketService{
		DB:     db,
		Admin:  admin,
		logger: log,
		// Stored timestamps have microsecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// VerificationResult is the door scanner's answer. AlreadyVerified carries the original scan time.
type VerificationResult struct {
	Success         bool                  `json:"success"`
	AlreadyVerified bool                  `json:"alreadyVerified"`
	TicketNumber    int64                 `json:"ticketNumber"`
	VerifiedAt      time.Time             `json:"verifiedAt"`
	CustomerName    string                `json:"customerName,omitempty"`
	CustomerEmail   string                `json:"customerEmail,omitempty"`
	PurchaseMethod  models.PurchaseMethod `json:"purchaseMethod"`
	Faction         models.FactionSummary `json:"faction"`
}

// Verify moves a ticket from unverified to verified exactly once.
func (s *TicketService) Verify(ctx context.Context, token, credential string) (*VerificationResult, error) {
	if _, err := s.Admin.Validate(ctx, credential); err != nil {
		metrics.Verifications.WithLabelValues("unauthorized").Inc()
		s.logger.LogSecurity("VERIFY_REJECTED", "Ticket verification attempted without a valid admin session")
		if apperr.Is(err, apperr.KindUnauthorized) {
			return nil, err
		}
		return nil, apperr.Unauthorized("invalid admin credential")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("verification token is required")
	}

	ticket, err := s.DB.GetTicketByToken(ctx, token)
	if errors.Is(err, db.ErrTicketNotFound) {
		metrics.Verifications.WithLabelValues("not_found").Inc()
		return nil, apperr.NotFound("invalid ticket")
	}
	if err != nil {
		return nil, apperr.Internal("load ticket", err)
	}

	if ticket.IsVerified {
		return s.alreadyVerified(ticket), nil
	}

	at := s.now()
	changed, err := s.DB.MarkVerified(ctx, ticket.ID, at)
	if err != nil {
		return nil, apperr.Internal("mark ticket verified", err)
	}
	if !changed {
		// Another scanner won the race; report what it stored.
		current, err := s.DB.GetTicketByToken(ctx, token)
		if err != nil {
			return nil, apperr.Internal("reload ticket", err)
		}
		return s.alreadyVerified(current), nil
	}

	metrics.Verifications.WithLabelValues("verified").Inc()
	s.logger.LogTicket("VERIFIED", ticket.TicketNumber, "Ticket verified at door")

	result := &VerificationResult{
		Success:        true,
		TicketNumber:   ticket.TicketNumber,
		VerifiedAt:     at,
		PurchaseMethod: ticket.PurchaseMethod,
	}
	if ticket.Order != nil {
		result.CustomerName = ticket.Order.Name()
		result.CustomerEmail = ticket.Order.CustomerEmail
	}
	if ticket.Faction != nil {
		result.Faction = ticket.Faction.Summary()
	}

	s.publishVerified(ctx, ticket, at)
	return result, nil
}

func (s *TicketService) alreadyVerified(ticket *models.Ticket) *VerificationResult {
	metrics.Verifications.WithLabelValues("already_verified").Inc()
	s.logger.LogTicket("ALREADY_VERIFIED", ticket.TicketNumber, "Ticket was scanned again")

	result := &VerificationResult{
		AlreadyVerified: true,
		TicketNumber:    ticket.TicketNumber,
		PurchaseMethod:  ticket.PurchaseMethod,
	}
	if ticket.VerifiedAt != nil {
		result.VerifiedAt = ticket.VerifiedAt.UTC()
	}
	if ticket.Faction != nil {
		result.Faction = ticket.Faction.Summary()
	}
	return result
}

func (s *TicketService) publishVerified(ctx context.Context, ticket *models.Ticket, at time.Time) {
	if s.Producer == nil || s.Topic == "" {
		return
	}
	event := kafka.TicketVerifiedEvent{
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		FactionID:    ticket.AssignedFactionID,
		VerifiedAt:   at,
	}
	if err := s.Producer.PublishJSON(context.WithoutCancel(ctx), s.Topic, fmt.Sprint(ticket.TicketNumber), event); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish verified event for ticket #%d: %v", ticket.TicketNumber, err))
	}
}

type TicketInfo struct {
	TicketNumber int64          `json:"ticketNumber"`
	Verified     bool           `json:"verified"`
	Faction      models.Faction `json:"faction"`
}

// TicketInfo is the public view behind a QR code: number and faction only.
func (s *TicketService) TicketInfo(ctx context.Context, token string) (*TicketInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("verification token is required")
	}
	ticket, err := s.DB.GetTicketByToken(ctx, token)
	if errors.Is(err, db.ErrTicketNotFound) {
		return nil, apperr.NotFound("invalid ticket")
	}
	if err != nil {
		return nil, apperr.Internal("load ticket", err)
	}
	if ticket.Faction == nil {
		return nil, apperr.Internal("load ticket", fmt.Errorf("faction %d missing for ticket #%d", ticket.AssignedFactionID, ticket.TicketNumber))
	}
	return &TicketInfo{
		TicketNumber: ticket.TicketNumber,
		Verified:     ticket.IsVerified,
		Faction:      *ticket.Faction,
	}, nil
}

type AdminTicket struct {
	TicketNumber   int64                 `json:"ticketNumber"`
	CustomerEmail  string                `json:"customerEmail"`
	CustomerName   string                `json:"customerName,omitempty"`
	TicketType     string                `json:"ticketType"`
	OrderStatus    models.OrderStatus    `json:"orderStatus"`
	PurchaseMethod models.PurchaseMethod `json:"purchaseMethod"`
	IsVerified     bool                  `json:"isVerified"`
	VerifiedAt     *time.Time            `json:"verifiedAt,omitempty"`
	Faction        models.FactionSummary `json:"faction"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type TicketList struct {
	Tickets []AdminTicket  `json:"tickets"`
	Stats   db.TicketStats `json:"stats"`
}

// ListTickets is the admin listing, newest ticket number first. A limit of 0 returns everything.
func (s *TicketService) ListTickets(ctx context.Context, limit, offset int) (*TicketList, error) {
	if limit < 0 || offset < 0 {
		return nil, apperr.Validation("limit and offset must not be negative")
	}
	rows, err := s.DB.ListTickets(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal("list tickets", err)
	}
	stats, err := s.DB.GetTicketStats(ctx)
	if err != nil {
		return nil, apperr.Internal("ticket stats", err)
	}

	list := &TicketList{Tickets: make([]AdminTicket, 0, len(rows)), Stats: stats}
	for _, t := range rows {
		item := AdminTicket{
			TicketNumber:   t.TicketNumber,
			PurchaseMethod: t.PurchaseMethod,
			IsVerified:     t.IsVerified,
			VerifiedAt:     t.VerifiedAt,
			CreatedAt:      t.CreatedAt,
		}
		if t.Order != nil {
			item.CustomerEmail = t.Order.CustomerEmail
			item.CustomerName = t.Order.Name()
			item.OrderStatus = t.Order.Status
			if t.Order.TicketType != nil {
				item.TicketType = t.Order.TicketType.Name
			}
		}
		if t.Faction != nil {
			item.Faction = t.Faction.Summary()
		}
		list.Tickets = append(list.Tickets, item)
	}
	return list, nil
}
