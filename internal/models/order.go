package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusPaidInPerson OrderStatus = "PAID_IN_PERSON"
	OrderStatusCanceled     OrderStatus = "CANCELED"
	OrderStatusRefunded     OrderStatus = "REFUNDED"
)

// InventoryStatuses are the statuses counted as sold when checking inventory.
var InventoryStatuses = []OrderStatus{OrderStatusPaid, OrderStatusPending}

type Order struct {
	bun.BaseModel `bun:"table:ticket_orders,alias:o"`

	ID                      int64       `bun:"id,pk,autoincrement" json:"id"`
	StripeCheckoutSessionID string      `bun:"stripe_checkout_session_id,notnull,unique" json:"stripeCheckoutSessionId"`
	StripePaymentIntentID   *string     `bun:"stripe_payment_intent_id,unique" json:"stripePaymentIntentId,omitempty"`
	CustomerEmail           string      `bun:"customer_email,notnull" json:"customerEmail"`
	CustomerName            *string     `bun:"customer_name" json:"customerName,omitempty"`
	TicketTypeID            int64       `bun:"ticket_type_id,notnull" json:"ticketTypeId"`
	Quantity                int         `bun:"quantity,notnull" json:"quantity"`
	Status                  OrderStatus `bun:"status,notnull" json:"status"`
	CreatedAt               time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt               time.Time   `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	TicketType *TicketType `bun:"rel:belongs-to,join:ticket_type_id=id" json:"ticketType,omitempty"`
	Tickets    []*Ticket   `bun:"rel:has-many,join:id=order_id" json:"tickets,omitempty"`
}

func (o Order) Name() string {
	if o.CustomerName == nil {
		return ""
	}
	return *o.CustomerName
}
