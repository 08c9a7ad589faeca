package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"social-go/internal/events"
	"social-go/internal/models"
	"social-go/internal/presence"
	"social-go/internal/storage"
)

var (
	ErrSelfBlock         = errors.New("cannot block yourself")
	ErrInvalidVisibility = errors.New("invalid profile visibility")
	ErrInvalidQuietHours = errors.New("invalid quiet-hours window")
)

// UpdateProfileInput carries the optional profile and settings fields of an
// update. Empty strings and nil pointers leave the stored value untouched.
type UpdateProfileInput struct {
	Nickname              string
	AvatarURL             string
	Bio                   string
	ProfileVisibility     string
	QuietHoursEnabled     *bool
	QuietHoursStart       string
	QuietHoursEnd         string
	TimezoneOffsetMinutes *int
}

// UserService covers the user-directory surface the social graph consumes:
// profiles, privacy settings and the block list.
type UserService interface {
	GetUserProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error)
	SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error)
	BlockUser(ctx context.Context, blockerID uint, blockedUsername string) error
	UnblockUser(ctx context.Context, blockerID uint, blockedUsername string) error
	ListBlockedUsers(ctx context.Context, blockerID uint) ([]*models.UserBasicInfo, error)
}

type userService struct {
	userRepo  storage.UserRepository
	blockRepo storage.BlockRepository
	publisher events.Publisher
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo storage.UserRepository, blockRepo storage.BlockRepository, publisher events.Publisher) UserService {
	return &userService{userRepo: userRepo, blockRepo: blockRepo, publisher: publisher}
}

// GetUserProfile returns a user's record with sensitive fields cleared.
func (s *userService) GetUserProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateUserProfile applies the provided fields and broadcasts a userUpdate
// when anything changed.
func (s *userService) UpdateUserProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d for update: %w", userID, err)
	}

	updated := false
	if input.Nickname != "" && user.Nickname != input.Nickname {
		user.Nickname = input.Nickname
		updated = true
	}
	if input.AvatarURL != "" && user.AvatarURL != input.AvatarURL {
		user.AvatarURL = input.AvatarURL
		updated = true
	}
	if input.Bio != "" && user.Bio != input.Bio {
		user.Bio = input.Bio
		updated = true
	}
	if input.ProfileVisibility != "" {
		visibility := models.ProfileVisibility(input.ProfileVisibility)
		if visibility != models.ProfileVisibilityPublic && visibility != models.ProfileVisibilityPrivate {
			return nil, ErrInvalidVisibility
		}
		if user.ProfileVisibility != visibility {
			user.ProfileVisibility = visibility
			updated = true
		}
	}
	if input.QuietHoursStart != "" {
		if _, err := presence.ParseClock(input.QuietHoursStart); err != nil {
			return nil, ErrInvalidQuietHours
		}
		user.QuietHoursStart = input.QuietHoursStart
		updated = true
	}
	if input.QuietHoursEnd != "" {
		if _, err := presence.ParseClock(input.QuietHoursEnd); err != nil {
			return nil, ErrInvalidQuietHours
		}
		user.QuietHoursEnd = input.QuietHoursEnd
		updated = true
	}
	if input.QuietHoursEnabled != nil && user.QuietHoursEnabled != *input.QuietHoursEnabled {
		user.QuietHoursEnabled = *input.QuietHoursEnabled
		updated = true
	}
	if input.TimezoneOffsetMinutes != nil && user.TimezoneOffsetMinutes != *input.TimezoneOffsetMinutes {
		user.TimezoneOffsetMinutes = *input.TimezoneOffsetMinutes
		updated = true
	}

	if !updated {
		user.PasswordHash = ""
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUserUpdate(ctx, user.BasicInfo(), events.ChangeUpdated); err != nil {
			log.Printf("Failed to publish userUpdate for user %s: %v", user.Username, err)
		}
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error) {
	return s.userRepo.SearchUsers(ctx, query, currentUserID)
}

// BlockUser records a directed block. Blocking someone already blocked is a
// no-op.
func (s *userService) BlockUser(ctx context.Context, blockerID uint, blockedUsername string) error {
	blocked, err := s.lookupByUsername(ctx, blockedUsername)
	if err != nil {
		return err
	}
	if blocked.ID == blockerID {
		return ErrSelfBlock
	}
	block := &models.UserBlock{BlockerID: blockerID, BlockedID: blocked.ID}
	if err := s.blockRepo.Create(ctx, block); err != nil {
		return fmt.Errorf("failed to block user %s: %w", blockedUsername, err)
	}
	return nil
}

func (s *userService) UnblockUser(ctx context.Context, blockerID uint, blockedUsername string) error {
	blocked, err := s.lookupByUsername(ctx, blockedUsername)
	if err != nil {
		return err
	}
	if err := s.blockRepo.Delete(ctx, blockerID, blocked.ID); err != nil {
		return fmt.Errorf("failed to unblock user %s: %w", blockedUsername, err)
	}
	return nil
}

func (s *userService) ListBlockedUsers(ctx context.Context, blockerID uint) ([]*models.UserBasicInfo, error) {
	ids, err := s.blockRepo.ListBlockedIDs(ctx, blockerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	if len(ids) == 0 {
		return []*models.UserBasicInfo{}, nil
	}
	return s.userRepo.GetMultipleBasicInfoByIDs(ctx, ids)
}

func (s *userService) lookupByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	return user, nil
}
