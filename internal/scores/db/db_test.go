package db_test

import (
	"context"
	"testing"
	"time"

	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/scores/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	bunDB, err := database.OpenSQLite("")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := database.Bootstrap(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to bootstrap schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func TestScoreIsSumOfEvents(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	score, err := d.CurrentScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), score)

	for _, p := range []int64{10, -3, 5} {
		require.NoError(t, d.AddEvent(ctx, &models.FactionScoreEvent{FactionID: 1, Points: p, Description: "round"}))
	}
	require.NoError(t, d.AddEvent(ctx, &models.FactionScoreEvent{FactionID: 2, Points: 7, Description: "other"}))

	score, err = d.CurrentScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), score)

	totals, err := d.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 12, 2: 7}, totals)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event := &models.FactionScoreEvent{FactionID: 1, Points: 5, Description: "first"}
	require.NoError(t, d.AddEvent(ctx, event))

	event.FactionID = 3
	event.Points = 8
	event.Description = "moved"
	require.NoError(t, d.UpdateEvent(ctx, event))

	got, err := d.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.FactionID)
	assert.Equal(t, int64(8), got.Points)
	assert.Equal(t, "moved", got.Description)

	require.NoError(t, d.DeleteEvent(ctx, event.ID))
	assert.ErrorIs(t, d.DeleteEvent(ctx, event.ID), db.ErrEventNotFound)
	_, err = d.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, db.ErrEventNotFound)
	assert.ErrorIs(t, d.UpdateEvent(ctx, &models.FactionScoreEvent{ID: 999, FactionID: 1, Description: "x"}), db.ErrEventNotFound)
}

func TestTimelineNewestFirst(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	older := &models.FactionScoreEvent{FactionID: 1, Points: 1, Description: "older", CreatedAt: base}
	newer := &models.FactionScoreEvent{FactionID: 2, Points: 2, Description: "newer", CreatedAt: base.Add(time.Minute)}
	sameTimeLater := &models.FactionScoreEvent{FactionID: 1, Points: 3, Description: "tie", CreatedAt: base}
	for _, e := range []*models.FactionScoreEvent{older, newer, sameTimeLater} {
		require.NoError(t, d.AddEvent(ctx, e))
	}

	all, err := d.Timeline(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"newer", "tie", "older"}, []string{all[0].Description, all[1].Description, all[2].Description})
	require.NotNil(t, all[0].Faction)
	assert.Equal(t, models.FactionLucid, all[0].Faction.Name)

	faction := int64(1)
	one, err := d.Timeline(ctx, &faction)
	require.NoError(t, err)
	require.Len(t, one, 2)
	assert.Equal(t, "tie", one[0].Description)

	none := int64(4)
	empty, err := d.Timeline(ctx, &none)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
