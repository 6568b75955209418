// Package notifications provides real-time notification delivery over
// websockets: a global new-post feed and per-post rooms for comment and
// reaction updates.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"

	"github.com/Tatiana-20/tati-blog/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 10000
)

// PostHub tracks every connected client and the per-post rooms they joined.
// Room membership lives and dies with the connection.
type PostHub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	perUser    map[uint]int
	rooms      map[uint]map[*Client]struct{}
	member     map[*Client]map[uint]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
}

// NewPostHub creates a new PostHub instance.
func NewPostHub() *PostHub {
	return &PostHub{
		clients:  make(map[*Client]struct{}),
		perUser:  make(map[uint]int),
		rooms:    make(map[uint]map[*Client]struct{}),
		member:   make(map[*Client]map[uint]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *PostHub) Name() string { return "post hub" }

// Register adds a connection for an authenticated user. Returns the Client or
// an error when connection limits are exceeded.
func (h *PostHub) Register(conn *websocket.Conn, userID uint, email string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID, email)
	client.IncomingHandler = h.handleMessage

	h.clients[client] = struct{}{}
	h.perUser[userID]++
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()

	return client, nil
}

// UnregisterClient drops the client and its room memberships.
func (h *PostHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()

	h.perUser[client.UserID]--
	if h.perUser[client.UserID] <= 0 {
		delete(h.perUser, client.UserID)
	}

	for postID := range h.member[client] {
		h.removeFromRoom(client, postID)
	}
	delete(h.member, client)
}

// handleMessage dispatches incoming joinPostRoom / leavePostRoom frames.
// Unknown events and frames without a post id are ignored.
func (h *PostHub) handleMessage(client *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("PostHub: dropping malformed frame from user %d: %v", client.UserID, err)
		return
	}

	switch frame.Event {
	case EventJoinPostRoom:
		if postID, ok := parsePostID(frame.Data); ok {
			h.JoinRoom(client, postID)
		}
	case EventLeavePostRoom:
		if postID, ok := parsePostID(frame.Data); ok {
			h.LeaveRoom(client, postID)
		}
	}
}

// parsePostID accepts the post id either as a JSON string or a number.
// A missing or empty id reports false: the event is a no-op.
func parsePostID(data json.RawMessage) (uint, bool) {
	if len(data) == 0 {
		return 0, false
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString == "" {
			return 0, false
		}
		id, err := strconv.ParseUint(asString, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint(id), true
	}
	var asNumber uint
	if err := json.Unmarshal(data, &asNumber); err == nil && asNumber != 0 {
		return asNumber, true
	}
	return 0, false
}

// JoinRoom subscribes the client to a post's update room. A connection can be
// in any number of rooms at once.
func (h *PostHub) JoinRoom(client *Client, postID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	room, ok := h.rooms[postID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[postID] = room
	}
	if _, already := room[client]; already {
		return
	}
	room[client] = struct{}{}

	if h.member[client] == nil {
		h.member[client] = make(map[uint]struct{})
	}
	h.member[client][postID] = struct{}{}

	observability.WebSocketRoomConnections.WithLabelValues(strconv.FormatUint(uint64(postID), 10)).Inc()
	observability.WebSocketEventsTotal.WithLabelValues(EventJoinPostRoom).Inc()
}

// LeaveRoom unsubscribes the client from a post's update room.
func (h *PostHub) LeaveRoom(client *Client, postID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.member[client]; ok {
		if _, in := members[postID]; in {
			delete(members, postID)
			h.removeFromRoom(client, postID)
			observability.WebSocketEventsTotal.WithLabelValues(EventLeavePostRoom).Inc()
		}
	}
}

// removeFromRoom must be called with h.mu held.
func (h *PostHub) removeFromRoom(client *Client, postID uint) {
	if room, ok := h.rooms[postID]; ok {
		if _, in := room[client]; in {
			delete(room, client)
			observability.WebSocketRoomConnections.WithLabelValues(strconv.FormatUint(uint64(postID), 10)).Dec()
		}
		if len(room) == 0 {
			delete(h.rooms, postID)
		}
	}
}

// RoomSize returns the number of connections in a post's room.
func (h *PostHub) RoomSize(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[postID])
}

// BroadcastAll sends the message to every connected client.
func (h *PostHub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
	observability.WebSocketEventsTotal.WithLabelValues(EventNewPost).Inc()
}

// BroadcastToRoom sends the message to every client in the post's room.
func (h *PostHub) BroadcastToRoom(postID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[postID] {
		c.TrySend(message)
	}
	observability.WebSocketEventsTotal.WithLabelValues(EventPostUpdated).Inc()
}

// StartWiring connects the Notifier to this hub: messages published to the
// post channels on Redis are forwarded to local connections, so fan-out
// crosses processes. Without Redis the hub still delivers locally.
func (h *PostHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPostSubscriber(ctx, func(channel, payload string) {
		if channel == ChannelNewPosts {
			h.BroadcastAll([]byte(payload))
			return
		}
		postID, ok := ParseRoomChannel(channel)
		if !ok {
			log.Printf("invalid post notification channel: %s", channel)
			return
		}
		h.BroadcastToRoom(postID, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *PostHub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for client := range h.clients {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for user %d: %v", client.UserID, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for user %d: %v", client.UserID, err)
		}
	}
	h.clients = make(map[*Client]struct{})
	h.perUser = make(map[uint]int)
	h.rooms = make(map[uint]map[*Client]struct{})
	h.member = make(map[*Client]map[uint]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	close(h.done)

	return nil
}
