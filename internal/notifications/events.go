// Package notifications fans out live post events to websocket followers.
package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types pushed to followers of a post.
const (
	EventCommentCreated  = "comment_created"
	EventCommentUpdated  = "comment_updated"
	EventCommentDeleted  = "comment_deleted"
	EventReactionUpdated = "reaction_updated"
	EventPostUpdated     = "post_updated"
	EventPostArchived    = "post_archived"
	EventPostUnarchived  = "post_unarchived"
	EventReaders         = "readers"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type      string      `json:"type"`
	PostID    uint        `json:"post_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Encode marshals an event for the wire.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return data, nil
}

// PostChannel is the Redis channel carrying events for a post.
func PostChannel(postID uint) string {
	return fmt.Sprintf("post:%d:events", postID)
}

// ParsePostChannel extracts the post id from a PostChannel name.
func ParsePostChannel(channel string) (uint, bool) {
	var postID uint
	if _, err := fmt.Sscanf(channel, "post:%d:events", &postID); err != nil {
		return 0, false
	}
	return postID, PostChannel(postID) == channel
}
