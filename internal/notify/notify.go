// Package notify implements the client-side half of the fan-out contract:
// the presence-based suppression predicate and the transient notification
// list a connected client keeps. The server already restricts delivery to
// authorized recipients; suppression here is a UX filter on top of that, not
// an access-control boundary.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"social-go/internal/models"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// ShouldShowNotification decides whether a viewer in the given presence state
// surfaces a notification originated by sender. friends is the viewer's
// current friend set keyed by username. Unknown or unset statuses fail open.
func ShouldShowNotification(status models.UserStatus, scope models.MuteScope, sender string, friends map[string]bool) bool {
	switch status {
	case models.UserStatusOnline, models.UserStatusAway:
		return true
	case models.UserStatusInvisible:
		return false
	case models.UserStatusBusy:
		if scope == models.MuteScopeFriends {
			return friends[sender]
		}
		return false
	default:
		return true
	}
}

// Notification is a transient UI notification. Never persisted server-side.
type Notification struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// Center holds a client's active notifications, most recent first. Each entry
// expires after the TTL unless dismissed earlier. Safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	active []Notification
	timers map[string]*time.Timer
}

// NewCenter creates a Center with the given TTL; ttl <= 0 uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Push adds a notification to the front of the list and schedules its expiry.
// The assigned ID is returned for dismissal.
func (c *Center) Push(message, link string) string {
	n := Notification{
		ID:      uuid.NewString(),
		Message: message,
		Link:    link,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = append([]Notification{n}, c.active...)
	c.timers[n.ID] = time.AfterFunc(c.ttl, func() {
		c.Dismiss(n.ID)
	})
	return n.ID
}

// Dismiss removes a notification by ID. Dismissing an expired or unknown ID
// is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}

// Active returns a snapshot of the current notifications, most recent first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}
