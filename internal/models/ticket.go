package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PurchaseMethod string

const (
	PurchaseOnline   PurchaseMethod = "online"
	PurchaseInPerson PurchaseMethod = "in_person"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID                int64          `bun:"id,pk,autoincrement" json:"id"`
	OrderID           int64          `bun:"order_id,notnull" json:"orderId"`
	TicketNumber      int64          `bun:"ticket_number,notnull,unique" json:"ticketNumber"`
	AssignedFactionID int64          `bun:"assigned_faction_id,notnull" json:"assignedFactionId"`
	VerificationToken string         `bun:"verification_token,notnull,unique" json:"verificationToken"`
	IsVerified        bool           `bun:"is_verified,notnull" json:"isVerified"`
	VerifiedAt        *time.Time     `bun:"verified_at" json:"verifiedAt,omitempty"`
	PurchaseMethod    PurchaseMethod `bun:"purchase_method,notnull" json:"purchaseMethod"`
	CreatedAt         time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Order   *Order   `bun:"rel:belongs-to,join:order_id=id" json:"order,omitempty"`
	Faction *Faction `bun:"rel:belongs-to,join:assigned_faction_id=id" json:"faction,omitempty"`
}

// TicketCounter is the singleton row (id = 1) that hands out ticket numbers.
type TicketCounter struct {
	bun.BaseModel `bun:"table:ticket_counter"`

	ID           int64 `bun:"id,pk"`
	CurrentValue int64 `bun:"current_value,notnull"`
}
