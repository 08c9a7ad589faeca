package events

import (
	"encoding/json"
	"time"

	"social-go/internal/models"
)

// EventName identifies an event stream on the fan-out bus.
type EventName string

const (
	EventFriendRequestUpdate EventName = "friendRequestUpdate"
	EventUserUpdate          EventName = "userUpdate"
	EventUserStatusUpdate    EventName = "userStatusUpdate"
	EventChatUpdate          EventName = "chatUpdate"
	EventMessageUpdate       EventName = "messageUpdate"
)

// ChangeType says what happened to the entity an event carries.
type ChangeType string

const (
	ChangeCreated        ChangeType = "created"
	ChangeUpdated        ChangeType = "updated"
	ChangeDeleted        ChangeType = "deleted"
	ChangeNewMessage     ChangeType = "newMessage"
	ChangeNewParticipant ChangeType = "newParticipant"
)

// Envelope is the wire format on the fan-out topic. Recipients carries the
// usernames the gateway may deliver to; an empty list means broadcast to all
// connected clients. Access control lives here on the server side, not in the
// receiving client.
type Envelope struct {
	ID         string          `json:"id"`
	Event      EventName       `json:"event"`
	Type       ChangeType      `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Recipients []string        `json:"recipients,omitempty"`
	EmittedAt  time.Time       `json:"emittedAt"`
}

// FriendRequestUpdate is the payload of EventFriendRequestUpdate.
type FriendRequestUpdate struct {
	FriendRequest *models.FriendRequestWithUsers `json:"friendRequest"`
}

// UserUpdate is the payload of EventUserUpdate.
type UserUpdate struct {
	User *models.UserBasicInfo `json:"user"`
}

// UserStatusUpdate is the payload of EventUserStatusUpdate.
type UserStatusUpdate struct {
	Username  string            `json:"username"`
	Status    models.UserStatus `json:"status"`
	MuteScope models.MuteScope  `json:"muteScope,omitempty"`
}

// ChatUpdate is the payload of EventChatUpdate. The chat subsystem lives
// outside this service; the shape is defined here because its events share
// the fan-out bus.
type ChatUpdate struct {
	Chat json.RawMessage `json:"chat"`
}

// MessageUpdate is the payload of EventMessageUpdate.
type MessageUpdate struct {
	Msg json.RawMessage `json:"msg"`
}
