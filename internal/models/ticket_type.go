package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	StripePriceID  string    `bun:"stripe_price_id,notnull,unique" json:"stripePriceId"`
	Name           string    `bun:"name,notnull" json:"name"`
	Description    string    `bun:"description" json:"description"`
	Currency       string    `bun:"currency,notnull" json:"currency"`
	BasePriceMinor int64     `bun:"base_price_minor,notnull" json:"basePriceMinor"`
	TotalInventory *int64    `bun:"total_inventory" json:"totalInventory"`
	IsActive       bool      `bun:"is_active,notnull" json:"isActive"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Remaining returns nil for unlimited inventory, otherwise total minus sold floored at zero.
func (t TicketType) Remaining(sold int64) *int64 {
	if t.TotalInventory == nil {
		return nil
	}
	left := *t.TotalInventory - sold
	if left < 0 {
		left = 0
	}
	return &left
}
