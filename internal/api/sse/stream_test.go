package sse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashkah/partyroom/internal/api/response"
	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
	"github.com/bashkah/partyroom/internal/store/memory"
	"github.com/bashkah/partyroom/internal/testutil"
)

func seedRoom(t *testing.T, st store.Store) model.RoomID {
	t.Helper()

	ctx := context.Background()
	room := &model.Room{
		ID:       model.NewRoomID(model.GameFact, "12345"),
		Code:     "12345",
		GameType: model.GameFact,
		HostID:   "host",
		Status:   model.StatusWaiting,
		Phase:    model.PhaseLobby,
	}
	require.NoError(t, st.CreateRoom(ctx, room))
	require.NoError(t, st.UpsertPlayer(ctx, &model.Player{
		ID: "host", RoomID: room.ID, Name: "Ann", IsHost: true,
	}))
	return room.ID
}

// decodeSnapshot pulls the latest snapshot event from a client's stream
func decodeSnapshot(t *testing.T, raw []byte) response.Snapshot {
	t.Helper()

	text := string(raw)
	require.True(t, strings.HasPrefix(text, "event: snapshot\n"), "unexpected message: %s", text)
	data := strings.TrimPrefix(text, "event: snapshot\n")
	data = strings.TrimPrefix(data, "data: ")
	data = strings.TrimSuffix(data, "\n\n")

	var snap response.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	return snap
}

func TestStreamerDeliversSnapshots(t *testing.T) {
	st := memory.New()
	roomID := seedRoom(t, st)

	streamer := NewStreamer(st, testutil.NopLogger())
	t.Cleanup(streamer.Close)

	hub, err := streamer.Open(roomID)
	require.NoError(t, err)

	c := NewClient(hub, "host")
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	// A committed change reaches the client as a snapshot event
	require.NoError(t, st.UpsertPlayer(context.Background(), &model.Player{
		ID: "p2", RoomID: roomID, Name: "Bob",
	}))

	deadline := time.After(2 * time.Second)
	for {
		var raw []byte
		select {
		case raw = <-c.send:
		case <-deadline:
			t.Fatal("snapshot with second player never delivered")
		}
		snap := decodeSnapshot(t, raw)
		assert.Equal(t, string(roomID), snap.Room.ID)
		if len(snap.Players) == 2 {
			return
		}
	}
}

func TestStreamerSameHubPerRoom(t *testing.T) {
	st := memory.New()
	roomID := seedRoom(t, st)

	streamer := NewStreamer(st, testutil.NopLogger())
	t.Cleanup(streamer.Close)

	h1, err := streamer.Open(roomID)
	require.NoError(t, err)
	h2, err := streamer.Open(roomID)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}

func TestStreamerUnknownRoom(t *testing.T) {
	st := memory.New()
	streamer := NewStreamer(st, testutil.NopLogger())
	t.Cleanup(streamer.Close)

	_, err := streamer.Open("fact_00000")
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}

func TestStreamerRoomDeletedClosesStream(t *testing.T) {
	st := memory.New()
	roomID := seedRoom(t, st)

	streamer := NewStreamer(st, testutil.NopLogger())
	t.Cleanup(streamer.Close)

	hub, err := streamer.Open(roomID)
	require.NoError(t, err)

	c := NewClient(hub, "host")
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, st.DeleteRoom(context.Background(), roomID))

	// The terminal event arrives, then the hub shuts the client down
	deadline := time.After(2 * time.Second)
	sawClosed := false
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				require.True(t, sawClosed, "stream closed without a room-closed event")
				// The stream is gone: reopening starts a fresh watch, which
				// must fail for the deleted room
				_, err := streamer.Open(roomID)
				assert.ErrorIs(t, err, model.ErrRoomNotFound)
				return
			}
			if strings.HasPrefix(string(raw), "event: room-closed\n") {
				sawClosed = true
			}
		case <-deadline:
			t.Fatal("stream never terminated after room deletion")
		}
	}
}
