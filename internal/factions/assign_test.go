package factions

import (
	"testing"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededFactions() []models.Faction {
	fs := models.DefaultFactions()
	for i := range fs {
		fs[i].ID = int64(i + 1)
	}
	return fs
}

func TestAssignFactionCycles(t *testing.T) {
	assert.Equal(t, 0, AssignFaction(1))
	assert.Equal(t, 1, AssignFaction(2))
	assert.Equal(t, 2, AssignFaction(3))
	assert.Equal(t, 3, AssignFaction(4))
	assert.Equal(t, 0, AssignFaction(5))

	for n := int64(1); n <= 1000; n++ {
		assert.Equal(t, AssignFaction(n), AssignFaction(n+4))
	}
}

func TestRosterFollowsSortOrderNotID(t *testing.T) {
	// ids deliberately out of step with sort_order
	fs := seededFactions()
	fs[0].ID, fs[3].ID = 40, 10
	fs[0], fs[2] = fs[2], fs[0]

	roster, err := NewRoster(fs)
	require.NoError(t, err)

	f, err := roster.ForTicket(1)
	require.NoError(t, err)
	assert.Equal(t, models.FactionDejaVu, f.Name)
	assert.Equal(t, int64(40), f.ID)

	f, err = roster.ForTicket(4)
	require.NoError(t, err)
	assert.Equal(t, models.FactionDrift, f.Name)
	assert.Equal(t, int64(10), f.ID)
}

func TestOrdersOfFiveThenThree(t *testing.T) {
	roster, err := NewRoster(seededFactions())
	require.NoError(t, err)

	want := []models.FactionName{
		models.FactionDejaVu, models.FactionLucid, models.FactionHypnotic, models.FactionDrift, models.FactionDejaVu,
		models.FactionLucid, models.FactionHypnotic, models.FactionDrift,
	}
	for i, name := range want {
		f, err := roster.ForTicket(int64(i + 1))
		require.NoError(t, err)
		assert.Equal(t, name, f.Name, "ticket %d", i+1)
	}
}

func TestNewRosterRejectsWrongShape(t *testing.T) {
	_, err := NewRoster(seededFactions()[:3])
	assert.Error(t, err)

	fs := seededFactions()
	fs[3].SortOrder = 7
	_, err = NewRoster(fs)
	assert.Error(t, err)
}

func TestForTicketRejectsNonPositive(t *testing.T) {
	roster, err := NewRoster(seededFactions())
	require.NoError(t, err)

	_, err = roster.ForTicket(0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRosterLookups(t *testing.T) {
	roster, err := NewRoster(seededFactions())
	require.NoError(t, err)

	f, ok := roster.Get(2)
	assert.True(t, ok)
	assert.Equal(t, models.FactionLucid, f.Name)

	_, ok = roster.Get(99)
	assert.False(t, ok)
	assert.Len(t, roster.ByID(), Count)
}
