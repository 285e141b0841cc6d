// Package factions assigns ticket holders to one of the four factions.
package factions

import (
	"fmt"
	"sort"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/models"
)

// Count is the number of factions a roster must hold.
const Count = 4

// AssignFaction maps a 1-based ticket number onto a roster index. Ticket n and
// n+4 always share a faction.
func AssignFaction(ticketNumber int64) int {
	return int((ticketNumber - 1) % Count)
}

// Roster is the faction list in assignment order.
type Roster struct {
	factions []models.Faction
}

// NewRoster sorts factions by sort_order and requires exactly Count distinct entries.
func NewRoster(factions []models.Faction) (*Roster, error) {
	if len(factions) != Count {
		return nil, fmt.Errorf("faction roster must hold %d factions, found %d", Count, len(factions))
	}
	sorted := make([]models.Faction, len(factions))
	copy(sorted, factions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })

	for i, f := range sorted {
		if f.SortOrder != i {
			return nil, fmt.Errorf("faction %s has sort_order %d, want %d", f.Name, f.SortOrder, i)
		}
	}
	return &Roster{factions: sorted}, nil
}

// ForTicket returns the faction for a ticket number.
func (r *Roster) ForTicket(ticketNumber int64) (models.Faction, error) {
	if ticketNumber < 1 {
		return models.Faction{}, apperr.Validation(fmt.Sprintf("ticket number must be positive, got %d", ticketNumber))
	}
	return r.factions[AssignFaction(ticketNumber)], nil
}

func (r *Roster) Factions() []models.Faction {
	out := make([]models.Faction, len(r.factions))
	copy(out, r.factions)
	return out
}

// ByID indexes the roster for lookups when rendering tickets.
func (r *Roster) ByID() map[int64]models.Faction {
	m := make(map[int64]models.Faction, len(r.factions))
	for _, f := range r.factions {
		m[f.ID] = f
	}
	return m
}

func (r *Roster) Get(id int64) (models.Faction, bool) {
	for _, f := range r.factions {
		if f.ID == id {
			return f, true
		}
	}
	return models.Faction{}, false
}
