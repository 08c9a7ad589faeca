package models

// FriendRequestStatus is the state of the friend-request state machine.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// ValidTransitionTarget reports whether s is a status a pending request may
// move to. There is no transition back to pending.
func ValidTransitionTarget(s FriendRequestStatus) bool {
	return s == FriendRequestStatusAccepted || s == FriendRequestStatusRejected
}

// FriendRequest is a directed proposal from requester to recipient to
// establish a symmetric friendship. Two users are friends iff an accepted
// request names both, regardless of direction.
type FriendRequest struct {
	BaseModel
	RequesterID uint                `gorm:"not null;index" json:"requesterId"`
	RecipientID uint                `gorm:"not null;index" json:"recipientId"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Canonical unordered-pair key: UserLowID < UserHighID always. The unique
	// index makes "at most one request per pair" hold under concurrent
	// creates, independent of the application-level existence check.
	UserLowID  uint `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
	UserHighID uint `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
}

// SetPairKey fills the canonical pair columns from requester and recipient.
// Must be called before creating a record.
func (fr *FriendRequest) SetPairKey() {
	fr.UserLowID, fr.UserHighID = CanonicalPair(fr.RequesterID, fr.RecipientID)
}

// CanonicalPair orders two user IDs so that the smaller comes first.
func CanonicalPair(a, b uint) (low, high uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// CounterpartID returns the other party of the request from userID's point
// of view.
func (fr *FriendRequest) CounterpartID(userID uint) uint {
	if fr.RequesterID == userID {
		return fr.RecipientID
	}
	return fr.RequesterID
}

// FriendRequestWithUsers is a DTO pairing a request with both parties' basic
// info, for API responses and fan-out payloads.
type FriendRequestWithUsers struct {
	FriendRequest
	Requester *UserBasicInfo `json:"requester"`
	Recipient *UserBasicInfo `json:"recipient"`
}

// FriendConnection is the derived view of one accepted friendship from a
// particular user's side: the counterpart plus their live presence. It is
// computed, never persisted.
type FriendConnection struct {
	UserID    uint       `json:"userId"`
	Username  string     `json:"username"`
	RequestID uint       `json:"requestId"`
	Status    UserStatus `json:"onlineStatus"`
}
