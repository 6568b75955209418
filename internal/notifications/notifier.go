package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Tatiana-20/tati-blog/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// ChannelNewPosts carries the global new-post notification.
	ChannelNewPosts = "posts:new"
	// roomChannelPrefix + <post id> carries room-scoped post updates.
	roomChannelPrefix = "posts:room:"
)

// RoomChannel derives the Redis channel name for a post's update room.
func RoomChannel(postID uint) string {
	return roomChannelPrefix + strconv.FormatUint(uint64(postID), 10)
}

// ParseRoomChannel extracts the post id from a room channel name.
func ParseRoomChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, roomChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Notifier publishes post notifications into Redis channels so every process
// in the deployment can fan them out to its own websocket clients. With a nil
// Redis client every publish is a silent no-op and delivery stays local.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether publishes actually reach Redis. Callers fall back
// to local hub delivery when it is false, since published messages would
// otherwise vanish instead of looping back through the subscriber.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishNewPost announces a newly published post to every connected client.
func (n *Notifier) PublishNewPost(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	observability.NotificationsPublished.WithLabelValues("new_post").Inc()
	return n.rdb.Publish(ctx, ChannelNewPosts, NewPostFrame()).Err()
}

// PublishPostUpdate sends a room-scoped update for a post.
func (n *Notifier) PublishPostUpdate(ctx context.Context, postID uint, frame []byte) error {
	if n.rdb == nil {
		return nil
	}
	observability.NotificationsPublished.WithLabelValues("post_update").Inc()
	return n.rdb.Publish(ctx, RoomChannel(postID), frame).Err()
}

// StartPostSubscriber subscribes to the post channels and calls onMessage for
// each incoming message until ctx is cancelled.
func (n *Notifier) StartPostSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*", ChannelNewPosts)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PostSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
