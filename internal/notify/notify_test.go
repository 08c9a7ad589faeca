package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-go/internal/models"
)

func TestShouldShowNotification(t *testing.T) {
	friends := map[string]bool{"bob": true}

	tests := []struct {
		name   string
		status models.UserStatus
		scope  models.MuteScope
		sender string
		want   bool
	}{
		{"online shows everything", models.UserStatusOnline, models.MuteScopeEveryone, "stranger", true},
		{"away shows everything", models.UserStatusAway, models.MuteScopeEveryone, "stranger", true},
		{"invisible hides everything", models.UserStatusInvisible, models.MuteScopeEveryone, "bob", false},
		{"busy mutes everyone", models.UserStatusBusy, models.MuteScopeEveryone, "bob", false},
		{"busy friends-only shows friend", models.UserStatusBusy, models.MuteScopeFriends, "bob", true},
		{"busy friends-only hides stranger", models.UserStatusBusy, models.MuteScopeFriends, "stranger", false},
		{"unknown status fails open", models.UserStatus(""), models.MuteScopeEveryone, "stranger", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldShowNotification(tt.status, tt.scope, tt.sender, friends)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCenter_PushOrdersMostRecentFirst(t *testing.T) {
	c := NewCenter(time.Minute)

	first := c.Push("first", "")
	second := c.Push("second", "/questions/42")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, second, active[0].ID)
	assert.Equal(t, "second", active[0].Message)
	assert.Equal(t, "/questions/42", active[0].Link)
	assert.Equal(t, first, active[1].ID)
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(time.Minute)

	id := c.Push("hello", "")
	keep := c.Push("keep", "")

	c.Dismiss(id)

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, keep, active[0].ID)

	// Unknown and repeated dismissals are no-ops.
	c.Dismiss(id)
	c.Dismiss("not-an-id")
	assert.Len(t, c.Active(), 1)
}

func TestCenter_ExpiresAfterTTL(t *testing.T) {
	c := NewCenter(20 * time.Millisecond)

	c.Push("fleeting", "")
	require.Len(t, c.Active(), 1)

	assert.Eventually(t, func() bool {
		return len(c.Active()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCenter_DismissBeforeExpiryStopsTimer(t *testing.T) {
	c := NewCenter(50 * time.Millisecond)

	id := c.Push("gone early", "")
	c.Dismiss(id)

	assert.Empty(t, c.Active())
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, c.Active())
}
