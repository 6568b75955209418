package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestPostHubJoinAndRoomBroadcast(t *testing.T) {
	hub := NewPostHub()

	inRoom, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)
	outside, err := hub.Register(nil, 2, "b@example.com")
	require.NoError(t, err)

	hub.handleMessage(inRoom, []byte(`{"event":"joinPostRoom","data":"7"}`))
	assert.Equal(t, 1, hub.RoomSize(7))

	frame, err := PostUpdateFrame(PostUpdate{Type: UpdateCommentAdded, PostID: 7})
	require.NoError(t, err)
	hub.BroadcastToRoom(7, frame)

	got := recvFrame(t, inRoom)
	assert.Equal(t, EventPostUpdated, got.Event)
	assert.Empty(t, outside.Send)

	_ = hub.Shutdown(context.Background())
}

func TestPostHubJoinWithoutPostIDIsNoop(t *testing.T) {
	hub := NewPostHub()
	client, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)

	hub.handleMessage(client, []byte(`{"event":"joinPostRoom"}`))
	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":""}`))
	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":"not-a-number"}`))
	hub.handleMessage(client, []byte(`not json at all`))

	hub.mu.RLock()
	rooms := len(hub.rooms)
	hub.mu.RUnlock()
	assert.Zero(t, rooms)

	_ = hub.Shutdown(context.Background())
}

func TestPostHubLeaveRoom(t *testing.T) {
	hub := NewPostHub()
	client, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)

	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":"3"}`))
	require.Equal(t, 1, hub.RoomSize(3))

	hub.handleMessage(client, []byte(`{"event":"leavePostRoom","data":"3"}`))
	assert.Zero(t, hub.RoomSize(3))

	frame, err := PostUpdateFrame(PostUpdate{Type: UpdateReactionAdded, PostID: 3})
	require.NoError(t, err)
	hub.BroadcastToRoom(3, frame)
	assert.Empty(t, client.Send)

	_ = hub.Shutdown(context.Background())
}

func TestPostHubBroadcastAll(t *testing.T) {
	hub := NewPostHub()
	a, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)
	b, err := hub.Register(nil, 2, "b@example.com")
	require.NoError(t, err)

	hub.BroadcastAll(NewPostFrame())

	for _, c := range []*Client{a, b} {
		frame := recvFrame(t, c)
		assert.Equal(t, EventNewPost, frame.Event)
	}

	_ = hub.Shutdown(context.Background())
}

func TestPostHubUnregisterEvaporatesMembership(t *testing.T) {
	hub := NewPostHub()
	client, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)

	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":"9"}`))
	require.Equal(t, 1, hub.RoomSize(9))

	hub.UnregisterClient(client)
	assert.Zero(t, hub.RoomSize(9))

	// Double unregister stays safe.
	hub.UnregisterClient(client)

	_ = hub.Shutdown(context.Background())
}

func TestPostHubPerUserConnectionLimit(t *testing.T) {
	hub := NewPostHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(nil, 1, "a@example.com")
		require.NoError(t, err)
	}

	_, err := hub.Register(nil, 1, "a@example.com")
	assert.Error(t, err)

	// Other users are unaffected.
	_, err = hub.Register(nil, 2, "b@example.com")
	assert.NoError(t, err)

	_ = hub.Shutdown(context.Background())
}

func TestPostHubMultiRoomMembership(t *testing.T) {
	hub := NewPostHub()
	client, err := hub.Register(nil, 1, "a@example.com")
	require.NoError(t, err)

	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":"1"}`))
	hub.handleMessage(client, []byte(`{"event":"joinPostRoom","data":"2"}`))
	assert.Equal(t, 1, hub.RoomSize(1))
	assert.Equal(t, 1, hub.RoomSize(2))

	frame1, err := PostUpdateFrame(PostUpdate{Type: UpdateCommentAdded, PostID: 1})
	require.NoError(t, err)
	hub.BroadcastToRoom(1, frame1)
	frame2, err := PostUpdateFrame(PostUpdate{Type: UpdateReactionAdded, PostID: 2})
	require.NoError(t, err)
	hub.BroadcastToRoom(2, frame2)

	first := recvFrame(t, client)
	second := recvFrame(t, client)
	assert.Equal(t, EventPostUpdated, first.Event)
	assert.Equal(t, EventPostUpdated, second.Event)

	_ = hub.Shutdown(context.Background())
}
