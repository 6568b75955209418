package notifications

import (
	"encoding/json"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

// Client-to-server event names.
const (
	EventJoinPostRoom  = "joinPostRoom"
	EventLeavePostRoom = "leavePostRoom"
)

// Server-to-client event names.
const (
	EventNewPost     = "newPostNotification"
	EventPostUpdated = "postUpdated"
	EventError       = "error"
)

// Post update payload types.
const (
	UpdateCommentAdded  = "commentAdded"
	UpdateReactionAdded = "reactionAdded"
)

// Frame is the JSON envelope for every message on the wire.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PostUpdate is the room-scoped payload sent when a post gains a comment or
// reaction. Exactly one of Comment and Reaction is set, matching Type.
type PostUpdate struct {
	Type     string           `json:"type"`
	PostID   uint             `json:"postId"`
	Comment  *models.Comment  `json:"comment,omitempty"`
	Reaction *models.Reaction `json:"reaction,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// NewPostFrame is the global notification that some post was published. The
// payload is intentionally static; clients re-fetch the post list.
func NewPostFrame() []byte {
	frame, _ := encodeFrame(EventNewPost, map[string]string{
		"message": "Se ha publicado un nuevo post",
	})
	return frame
}

// PostUpdateFrame builds the room-scoped postUpdated frame.
func PostUpdateFrame(update PostUpdate) ([]byte, error) {
	return encodeFrame(EventPostUpdated, update)
}

// ErrorFrame builds the one-shot error frame sent before closing an
// unauthenticated connection.
func ErrorFrame(message string) []byte {
	frame, _ := encodeFrame(EventError, map[string]string{"message": message})
	return frame
}
