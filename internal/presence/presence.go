package presence

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"social-go/internal/events"
	"social-go/internal/models"
	"social-go/internal/storage"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidStatus = errors.New("invalid presence status")
)

// Service is the single owner of the presence fields on a user record.
// Connection lifecycle, explicit status changes and the quiet-hours sweeper
// all submit intents here instead of writing the fields themselves, so the
// triggers cannot race each other into lost updates.
type Service struct {
	userRepo  storage.UserRepository
	publisher events.Publisher
}

// NewService creates a presence Service.
func NewService(userRepo storage.UserRepository, publisher events.Publisher) *Service {
	return &Service{userRepo: userRepo, publisher: publisher}
}

// Connect handles a socket attaching for the user. Only a prior invisible
// (auto-set on disconnect) is promoted back to online; a user who set
// themselves away or busy keeps that status across reconnects.
func (s *Service) Connect(ctx context.Context, username string) error {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}
	if user.Status != models.UserStatusInvisible {
		return nil
	}
	return s.apply(ctx, user, models.UserStatusOnline, user.MuteScope, map[string]interface{}{
		"status": models.UserStatusOnline,
	})
}

// Disconnect handles the user's last socket dropping. Only online demotes to
// invisible; away and busy are sticky.
func (s *Service) Disconnect(ctx context.Context, username string) error {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}
	if user.Status != models.UserStatusOnline {
		return nil
	}
	return s.apply(ctx, user, models.UserStatusInvisible, user.MuteScope, map[string]interface{}{
		"status": models.UserStatusInvisible,
	})
}

// Logout forces the user invisible and drops any quiet-hours bookkeeping.
func (s *Service) Logout(ctx context.Context, username string) error {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}
	return s.apply(ctx, user, models.UserStatusInvisible, user.MuteScope, map[string]interface{}{
		"status":             models.UserStatusInvisible,
		"old_status":         "",
		"quiet_hours_active": false,
	})
}

// SetStatus applies an explicit user-chosen status. The scope is only
// meaningful for busy; other statuses keep the stored scope. A manual change
// clears quiet-hours bookkeeping so the sweeper re-evaluates on its next tick.
func (s *Service) SetStatus(ctx context.Context, username string, status models.UserStatus, scope models.MuteScope) error {
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}
	user, err := s.lookup(ctx, username)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"status":             status,
		"old_status":         "",
		"quiet_hours_active": false,
	}
	newScope := user.MuteScope
	if status == models.UserStatusBusy {
		if scope != models.MuteScopeEveryone && scope != models.MuteScopeFriends {
			scope = models.MuteScopeEveryone
		}
		fields["mute_scope"] = scope
		newScope = scope
	}
	return s.apply(ctx, user, status, newScope, fields)
}

// EnterQuietHours is the sweeper intent on window entry: remember the current
// status and force busy with everyone muted.
func (s *Service) EnterQuietHours(ctx context.Context, user *models.User) error {
	return s.apply(ctx, user, models.UserStatusBusy, models.MuteScopeEveryone, map[string]interface{}{
		"status":             models.UserStatusBusy,
		"mute_scope":         models.MuteScopeEveryone,
		"old_status":         user.Status,
		"quiet_hours_active": true,
	})
}

// ExitQuietHours restores the status saved on window entry.
func (s *Service) ExitQuietHours(ctx context.Context, user *models.User) error {
	restored := user.OldStatus
	if !models.ValidStatus(restored) {
		restored = models.UserStatusOnline
	}
	return s.apply(ctx, user, restored, user.MuteScope, map[string]interface{}{
		"status":             restored,
		"old_status":         "",
		"quiet_hours_active": false,
	})
}

func (s *Service) lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	return user, nil
}

// apply is the single mutation point: persist the presence fields, then emit
// a userStatusUpdate for the fan-out bus.
func (s *Service) apply(ctx context.Context, user *models.User, status models.UserStatus, scope models.MuteScope, fields map[string]interface{}) error {
	if err := s.userRepo.UpdatePresence(ctx, user.ID, fields); err != nil {
		return fmt.Errorf("failed to update presence for user %s: %w", user.Username, err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUserStatusUpdate(ctx, user.Username, status, scope); err != nil {
			// Presence is already persisted; a lost event only delays clients
			// until the next transition.
			log.Printf("Failed to publish status update for user %s: %v", user.Username, err)
		}
	}
	return nil
}
