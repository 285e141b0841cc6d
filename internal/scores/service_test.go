package scores_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/factions"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/models"
	"dreamstate-ticketing/internal/scores"
	"dreamstate-ticketing/internal/scores/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(board []models.FactionScore) {
	m.Called(board)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	args := m.Called(topic, key)
	return args.Error(0)
}

func setupService(t *testing.T) *scores.ScoreService {
	bunDB, err := database.OpenSQLite("")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := database.Bootstrap(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to bootstrap schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return scores.NewScoreService(&db.DB{Bun: bunDB}, &factions.Store{Bun: bunDB}, logger.NewLoggerWithOutput(io.Discard))
}

// seedFold records [+10, -3, +5] for faction 1 and returns the events.
func seedFold(t *testing.T, svc *scores.ScoreService) []*models.FactionScoreEvent {
	var events []*models.FactionScoreEvent
	for _, p := range []int64{10, -3, 5} {
		e, err := svc.AddEvent(context.Background(), 1, p, "round")
		require.NoError(t, err)
		events = append(events, e)
	}
	return events
}

func score(t *testing.T, svc *scores.ScoreService, factionID int64) int64 {
	s, err := svc.CurrentScore(context.Background(), factionID)
	require.NoError(t, err)
	return s
}

func TestScoreFold(t *testing.T) {
	t.Run("sum", func(t *testing.T) {
		svc := setupService(t)
		seedFold(t, svc)
		assert.Equal(t, int64(12), score(t, svc, 1))
	})

	t.Run("delete", func(t *testing.T) {
		svc := setupService(t)
		events := seedFold(t, svc)
		require.NoError(t, svc.DeleteEvent(context.Background(), events[1].ID))
		assert.Equal(t, int64(15), score(t, svc, 1))
	})

	t.Run("edit", func(t *testing.T) {
		svc := setupService(t)
		events := seedFold(t, svc)
		edited, err := svc.EditEvent(context.Background(), events[2].ID, 1, 2, "round (corrected)")
		require.NoError(t, err)
		assert.Equal(t, int64(2), edited.Points)
		assert.Equal(t, int64(9), score(t, svc, 1))
	})
}

func TestEditEventMovesPointsBetweenFactions(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	e, err := svc.AddEvent(ctx, 1, 20, "trivia")
	require.NoError(t, err)

	_, err = svc.EditEvent(ctx, e.ID, 4, 20, "trivia")
	require.NoError(t, err)

	assert.Equal(t, int64(0), score(t, svc, 1))
	assert.Equal(t, int64(20), score(t, svc, 4))
}

func TestScoreLedgerErrors(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.AddEvent(ctx, 99, 5, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.AddEvent(ctx, 1, 5, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.AddEvent(ctx, 0, 5, "no faction")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.EditEvent(ctx, 404, 1, 5, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	e, err := svc.AddEvent(ctx, 1, 5, "real")
	require.NoError(t, err)
	_, err = svc.EditEvent(ctx, e.ID, 99, 5, "bad faction")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, int64(5), score(t, svc, 1))

	assert.True(t, apperr.Is(svc.DeleteEvent(ctx, 404), apperr.KindNotFound))
	_, err = svc.GetEvent(ctx, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missing := int64(99)
	_, err = svc.Timeline(ctx, &missing)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestScoreboardAndHistory(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	seedFold(t, svc)
	_, err := svc.AddEvent(ctx, 3, 4, "dance-off")
	require.NoError(t, err)

	board, err := svc.Scoreboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, models.FactionDejaVu, board[0].Faction.Name)
	assert.Equal(t, int64(12), board[0].Score)
	assert.Equal(t, int64(0), board[1].Score)
	assert.Equal(t, int64(4), board[2].Score)
	assert.Equal(t, models.FactionDrift, board[3].Faction.Name)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.FactionDejaVu, history.Faction.Name)
	assert.Equal(t, int64(12), history.Score)
	assert.Len(t, history.Events, 3)

	all, err := svc.Timeline(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "dance-off", all[0].Description)
}

func TestMutationsBroadcastAndPublish(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	emitter := new(MockBroadcaster)
	emitter.On("Broadcast", mock.MatchedBy(func(board []models.FactionScore) bool {
		return len(board) == 4
	})).Return().Times(2)
	publisher := new(MockPublisher)
	publisher.On("PublishJSON", "factions.scored", "2").Return(nil).Once()
	publisher.On("PublishJSON", "factions.scored", "2").Return(errors.New("broker down")).Once()

	svc.Emitter = emitter
	svc.Producer = publisher
	svc.Topic = "factions.scored"

	e, err := svc.AddEvent(ctx, 2, 3, "scavenger hunt")
	require.NoError(t, err)
	// A failed publish does not fail the mutation.
	require.NoError(t, svc.DeleteEvent(ctx, e.ID))

	emitter.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
