package presence

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"social-go/internal/models"
	"social-go/internal/storage"
)

const minutesPerDay = 24 * 60

// ParseClock parses a local "HH:MM" wall-clock value into minute-of-day.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in clock value %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in clock value %q", s)
	}
	return hour*60 + minute, nil
}

// LocalToUTCMinute converts a local minute-of-day to UTC given the timezone
// offset in minutes east of UTC.
func LocalToUTCMinute(localMinute, offsetMinutes int) int {
	m := (localMinute - offsetMinutes) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// WindowContains reports whether now (UTC minute-of-day) falls inside the
// [start, end) window, handling windows that wrap past midnight. An empty
// window (start == end) contains nothing.
func WindowContains(start, end, now int) bool {
	if start == end {
		return false
	}
	if start < end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

// inQuietWindow evaluates a user's configured window at the given instant.
// Unparseable settings count as outside the window.
func inQuietWindow(user *models.User, now time.Time) bool {
	startLocal, err := ParseClock(user.QuietHoursStart)
	if err != nil {
		return false
	}
	endLocal, err := ParseClock(user.QuietHoursEnd)
	if err != nil {
		return false
	}
	start := LocalToUTCMinute(startLocal, user.TimezoneOffsetMinutes)
	end := LocalToUTCMinute(endLocal, user.TimezoneOffsetMinutes)
	nowUTC := now.UTC()
	return WindowContains(start, end, nowUTC.Hour()*60+nowUTC.Minute())
}

// Sweeper is the per-minute poll that moves users in and out of quiet hours.
// It never writes presence itself; it submits intents to the presence
// Service like every other trigger.
type Sweeper struct {
	userRepo storage.UserRepository
	presence *Service
	interval time.Duration
}

// NewSweeper creates a quiet-hours Sweeper.
func NewSweeper(userRepo storage.UserRepository, presence *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{userRepo: userRepo, presence: presence, interval: interval}
}

// Run sweeps on a ticker until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("Quiet-hours sweeper started (interval %s).", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Quiet-hours sweeper stopped.")
			return
		case now := <-ticker.C:
			if err := s.Sweep(ctx, now); err != nil {
				log.Printf("Quiet-hours sweep failed: %v", err)
			}
		}
	}
}

// Sweep runs one pass over all quiet-hours-enabled users.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	users, err := s.userRepo.ListQuietHoursEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list quiet-hours users: %w", err)
	}

	for i := range users {
		user := &users[i]
		inWindow := inQuietWindow(user, now)
		switch {
		case inWindow && !user.QuietHoursActive:
			if err := s.presence.EnterQuietHours(ctx, user); err != nil {
				log.Printf("Failed to enter quiet hours for user %s: %v", user.Username, err)
			}
		case !inWindow && user.QuietHoursActive:
			if err := s.presence.ExitQuietHours(ctx, user); err != nil {
				log.Printf("Failed to exit quiet hours for user %s: %v", user.Username, err)
			}
		}
	}
	return nil
}
