package arena

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contestantbots/hackbots/internal/bot"
	"github.com/contestantbots/hackbots/internal/game"
)

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := OpenResultStore(filepath.Join(t.TempDir(), "results.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResultStoreSaveAndLeaderboard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, uuid.New(), "Easy", 120, []Entry{
		{Name: "Robbie", Score: 7},
		{Name: "James", Score: 3, Disqualified: true},
	}))
	require.NoError(t, store.Save(ctx, uuid.New(), "Hard", 300, []Entry{
		{Name: "Hunter", Score: 12},
		{Name: "Default", Score: 0},
	}))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	top, err := store.Leaderboard(2, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Hunter", top[0].BotName)
	assert.Equal(t, "Hard", top[0].MapName)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 300, top[0].Phases)
	assert.Equal(t, "Robbie", top[1].BotName)
	assert.False(t, top[0].CreatedAt.IsZero())

	rest, err := store.Leaderboard(10, 2)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "James", rest[0].BotName)
	assert.True(t, rest[0].Disqualified)
	assert.Equal(t, 2, rest[0].Rank)
}

func TestResultStoreEmpty(t *testing.T) {
	store := openTestStore(t)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := store.Leaderboard(10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResultStoreSaveMatch(t *testing.T) {
	store := openTestStore(t)
	settings := untimed()
	settings.MaxPhases = 2
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 3}),
		[]bot.Bot{newPuppet("a", nil), newPuppet("b", nil)}, settings, quietLogger())
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	require.NoError(t, store.SaveMatch(context.Background(), a))

	results, err := store.Leaderboard(10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, a.ID().String(), r.MatchID)
		assert.Equal(t, "test", r.MapName)
		assert.Equal(t, 2, r.Phases)
	}
}

func TestResultStoreStopsOnCancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, uuid.New(), "Easy", 1, []Entry{{Name: "x"}})
	assert.Error(t, err)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
