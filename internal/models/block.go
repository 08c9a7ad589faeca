package models

// UserBlock is a directed block: Blocker no longer wants contact from Blocked.
// A block in either direction prevents new friend requests between the pair.
type UserBlock struct {
	BaseModel
	BlockerID uint `gorm:"not null;uniqueIndex:idx_user_block_pair" json:"blockerId"`
	BlockedID uint `gorm:"not null;uniqueIndex:idx_user_block_pair" json:"blockedId"`
}
