package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashkah/partyroom/internal/testutil"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub("fact_12345", testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func recvMessage(t *testing.T, c *Client) []byte {
	t.Helper()

	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := startHub(t)

	c1 := NewClient(hub, "p1")
	c2 := NewClient(hub, "p2")
	hub.Register(c1)
	hub.Register(c2)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("snapshot", `{"round":1}`)

	assert.Equal(t, "event: snapshot\ndata: {\"round\":1}\n\n", string(recvMessage(t, c1)))
	assert.Equal(t, "event: snapshot\ndata: {\"round\":1}\n\n", string(recvMessage(t, c2)))
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, "p1")
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub("fact_12345", testutil.NopLogger())
	go hub.Run()

	c := NewClient(hub, "p1")
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	hub.Close()
	// Close twice is safe
	hub.Close()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestFormatSSEMessageMultiline(t *testing.T) {
	msg := formatSSEMessage("snapshot", "line one\nline two")
	assert.Equal(t, "event: snapshot\ndata: line one\ndata: line two\n\n", string(msg))
}

func TestFormatSSEMessageEmptyData(t *testing.T) {
	msg := formatSSEMessage("room-closed", "")
	assert.Equal(t, "event: room-closed\ndata: \n\n", string(msg))
}
