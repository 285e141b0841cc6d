package models

import "github.com/uptrace/bun"

type FactionName string

const (
	FactionDejaVu   FactionName = "DEJA_VU"
	FactionLucid    FactionName = "LUCID"
	FactionHypnotic FactionName = "HYPNOTIC"
	FactionDrift    FactionName = "DRIFT"
)

// FactionOrder is the assignment order. A faction's sort_order is its index here.
var FactionOrder = []FactionName{FactionDejaVu, FactionLucid, FactionHypnotic, FactionDrift}

type Faction struct {
	bun.BaseModel `bun:"table:factions"`

	ID          int64       `bun:"id,pk,autoincrement" json:"id"`
	Name        FactionName `bun:"name,notnull,unique" json:"name"`
	DisplayName string      `bun:"display_name,notnull" json:"displayName"`
	Description string      `bun:"description,notnull" json:"description"`
	ColorToken  string      `bun:"color_token,notnull" json:"colorToken"`
	IconURL     *string     `bun:"icon_url" json:"iconUrl,omitempty"`
	SortOrder   int         `bun:"sort_order,notnull,unique" json:"sortOrder"`
}

// FactionSummary is the slice of a faction shown next to a ticket.
type FactionSummary struct {
	ID          int64       `json:"id"`
	Name        FactionName `json:"name"`
	DisplayName string      `json:"displayName"`
	ColorToken  string      `json:"colorToken"`
}

func (f Faction) Summary() FactionSummary {
	return FactionSummary{ID: f.ID, Name: f.Name, DisplayName: f.DisplayName, ColorToken: f.ColorToken}
}

// DefaultFactions is the seed roster.
func DefaultFactions() []Faction {
	return []Faction{
		{Name: FactionDejaVu, DisplayName: "Déjà Vu", Description: "The ones who have been here before.", ColorToken: "faction-deja-vu", SortOrder: 0},
		{Name: FactionLucid, DisplayName: "Lucid", Description: "Awake inside the dream.", ColorToken: "faction-lucid", SortOrder: 1},
		{Name: FactionHypnotic, DisplayName: "Hypnotic", Description: "Lost in the rhythm.", ColorToken: "faction-hypnotic", SortOrder: 2},
		{Name: FactionDrift, DisplayName: "Drift", Description: "Carried wherever the night goes.", ColorToken: "faction-drift", SortOrder: 3},
	}
}
