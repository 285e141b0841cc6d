package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FactionScoreEvent is one signed point delta. A faction's score is the sum of its events.
type FactionScoreEvent struct {
	bun.BaseModel `bun:"table:faction_score_events"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	FactionID   int64     `bun:"faction_id,notnull" json:"factionId"`
	Points      int64     `bun:"points,notnull" json:"points"`
	Description string    `bun:"description,notnull" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Faction *Faction `bun:"rel:belongs-to,join:faction_id=id" json:"faction,omitempty"`
}

type FactionScore struct {
	Faction FactionSummary `json:"faction"`
	Score   int64          `json:"score"`
}
