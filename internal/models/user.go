package models

// UserStatus is a user's current availability state.
type UserStatus string

const (
	UserStatusOnline    UserStatus = "online"
	UserStatusAway      UserStatus = "away"
	UserStatusBusy      UserStatus = "busy"
	UserStatusInvisible UserStatus = "invisible"
)

// MuteScope controls which senders a busy user still hears from.
type MuteScope string

const (
	MuteScopeEveryone MuteScope = "everyone"
	MuteScopeFriends  MuteScope = "friends"
)

// ProfileVisibility controls whether incoming friend requests need approval.
type ProfileVisibility string

const (
	ProfileVisibilityPublic  ProfileVisibility = "public"
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// User represents an account in the directory.
// Usernames are the stable public key; internal IDs stay internal.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Email        string `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname     string `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL    string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	Bio          string `gorm:"type:text" json:"bio,omitempty"`

	// Presence. OldStatus and QuietHoursActive are bookkeeping for the
	// quiet-hours sweeper and must only be written through the presence service.
	Status           UserStatus `gorm:"type:varchar(20);default:'invisible'" json:"status"`
	MuteScope        MuteScope  `gorm:"type:varchar(20);default:'everyone'" json:"muteScope,omitempty"`
	OldStatus        UserStatus `gorm:"type:varchar(20)" json:"-"`
	QuietHoursActive bool       `gorm:"default:false" json:"-"`

	ProfileVisibility ProfileVisibility `gorm:"type:varchar(20);default:'public'" json:"profileVisibility"`

	// Quiet-hours settings. Start/End are local wall-clock "HH:MM"; the
	// timezone offset is minutes east of UTC as reported by the client.
	QuietHoursEnabled     bool   `gorm:"default:false" json:"quietHoursEnabled"`
	QuietHoursStart       string `gorm:"type:varchar(5)" json:"quietHoursStart,omitempty"`
	QuietHoursEnd         string `gorm:"type:varchar(5)" json:"quietHoursEnd,omitempty"`
	TimezoneOffsetMinutes int    `json:"timezoneOffsetMinutes,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for friend lists, mutual-friend results and fan-out payloads.
type UserBasicInfo struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Nickname  string     `json:"nickname,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Status    UserStatus `json:"status,omitempty"`
}

// BasicInfo strips a user down to its public fields.
func (u *User) BasicInfo() *UserBasicInfo {
	return &UserBasicInfo{
		ID:        u.ID,
		Username:  u.Username,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		Status:    u.Status,
	}
}

// ValidStatus reports whether s is one of the recognised presence states.
func ValidStatus(s UserStatus) bool {
	switch s {
	case UserStatusOnline, UserStatusAway, UserStatusBusy, UserStatusInvisible:
		return true
	}
	return false
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
