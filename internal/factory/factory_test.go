package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashkah/partyroom/internal/model"
)

func TestNewDefaultsToMemoryStore(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)

	require.NotNil(t, app.Store)
	require.NotNil(t, app.RoomController)
	require.NotNil(t, app.PhaseMachine)
	assert.NotZero(t, app.CoordinatorConfig.VoteTimeout)
}

func TestNewRejectsUnknownStoreType(t *testing.T) {
	_, err := New(context.Background(), Config{StoreType: "etcd"})
	assert.Error(t, err)
}

func TestNewRequiresBackendConfig(t *testing.T) {
	_, err := New(context.Background(), Config{StoreType: StoreTypeRedis})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{StoreType: StoreTypeMongo})
	assert.Error(t, err)
}

func TestAppWiresWorkingCoordinator(t *testing.T) {
	ctx := context.Background()
	app := NewTestApp()
	app.MockRandom.QueueString("12345")

	room, err := app.RoomController.CreateRoom(ctx, model.GameFact, "host", "Ann")
	require.NoError(t, err)

	coord := app.NewCoordinator("host")
	require.NoError(t, coord.Attach(ctx, room.ID))
	defer coord.Detach()

	require.NoError(t, coord.SetReady(ctx, true))

	players, err := app.Store.GetPlayers(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.True(t, players[0].IsReady)
}
