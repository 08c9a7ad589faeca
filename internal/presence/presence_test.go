package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"social-go/internal/mocks"
	"social-go/internal/models"
)

func newPresenceServiceWithMocks() (*Service, *mocks.MockUserRepository, *mocks.MockPublisher) {
	userRepo := new(mocks.MockUserRepository)
	publisher := new(mocks.MockPublisher)
	return NewService(userRepo, publisher), userRepo, publisher
}

func presenceUser(id uint, username string, status models.UserStatus) *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: id},
		Username:  username,
		Status:    status,
		MuteScope: models.MuteScopeEveryone,
	}
}

func TestConnect_PromotesInvisibleToOnline(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusInvisible), nil)
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status": models.UserStatusOnline,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusOnline, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.Connect(ctx, "alice"))
	userRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestConnect_KeepsManualStatus(t *testing.T) {
	svc, userRepo, _ := newPresenceServiceWithMocks()
	ctx := context.Background()

	// A user who set themselves busy stays busy across reconnects.
	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusBusy), nil)

	require.NoError(t, svc.Connect(ctx, "alice"))
	userRepo.AssertNotCalled(t, "UpdatePresence", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisconnect_DemotesOnlineOnly(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusOnline), nil)
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status": models.UserStatusInvisible,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusInvisible, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.Disconnect(ctx, "alice"))
	userRepo.AssertExpectations(t)
}

func TestDisconnect_AwayIsSticky(t *testing.T) {
	svc, userRepo, _ := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusAway), nil)

	require.NoError(t, svc.Disconnect(ctx, "alice"))
	userRepo.AssertNotCalled(t, "UpdatePresence", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_ForcesInvisibleAndClearsBookkeeping(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	user := presenceUser(1, "alice", models.UserStatusBusy)
	userRepo.On("GetByUsername", ctx, "alice").Return(user, nil)
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status":             models.UserStatusInvisible,
		"old_status":         "",
		"quiet_hours_active": false,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusInvisible, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.Logout(ctx, "alice"))
	userRepo.AssertExpectations(t)
}

func TestSetStatus_BusyAppliesScope(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusOnline), nil)
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status":             models.UserStatusBusy,
		"old_status":         "",
		"quiet_hours_active": false,
		"mute_scope":         models.MuteScopeFriends,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusBusy, models.MuteScopeFriends).Return(nil)

	require.NoError(t, svc.SetStatus(ctx, "alice", models.UserStatusBusy, models.MuteScopeFriends))
	userRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSetStatus_BusyWithUnknownScopeDefaultsToEveryone(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(presenceUser(1, "alice", models.UserStatusOnline), nil)
	userRepo.On("UpdatePresence", ctx, uint(1), mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["mute_scope"] == models.MuteScopeEveryone
	})).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusBusy, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.SetStatus(ctx, "alice", models.UserStatusBusy, models.MuteScope("whatever")))
	userRepo.AssertExpectations(t)
}

func TestSetStatus_NonBusyKeepsStoredScope(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	user := presenceUser(1, "alice", models.UserStatusBusy)
	user.MuteScope = models.MuteScopeFriends
	userRepo.On("GetByUsername", ctx, "alice").Return(user, nil)
	userRepo.On("UpdatePresence", ctx, uint(1), mock.MatchedBy(func(fields map[string]interface{}) bool {
		_, hasScope := fields["mute_scope"]
		return !hasScope
	})).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusAway, models.MuteScopeFriends).Return(nil)

	require.NoError(t, svc.SetStatus(ctx, "alice", models.UserStatusAway, ""))
	userRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	svc, userRepo, _ := newPresenceServiceWithMocks()

	err := svc.SetStatus(context.Background(), "alice", models.UserStatus("offline"), "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	userRepo.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

func TestSetStatus_UserNotFound(t *testing.T) {
	svc, userRepo, _ := newPresenceServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

	err := svc.SetStatus(ctx, "ghost", models.UserStatusOnline, "")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEnterQuietHours_SavesCurrentStatus(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	user := presenceUser(1, "alice", models.UserStatusAway)
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status":             models.UserStatusBusy,
		"mute_scope":         models.MuteScopeEveryone,
		"old_status":         models.UserStatusAway,
		"quiet_hours_active": true,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusBusy, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.EnterQuietHours(ctx, user))
	userRepo.AssertExpectations(t)
}

func TestExitQuietHours_RestoresSavedStatus(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	user := presenceUser(1, "alice", models.UserStatusBusy)
	user.OldStatus = models.UserStatusAway
	user.QuietHoursActive = true
	userRepo.On("UpdatePresence", ctx, uint(1), map[string]interface{}{
		"status":             models.UserStatusAway,
		"old_status":         "",
		"quiet_hours_active": false,
	}).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusAway, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.ExitQuietHours(ctx, user))
	userRepo.AssertExpectations(t)
}

func TestExitQuietHours_MissingSavedStatusFallsBackToOnline(t *testing.T) {
	svc, userRepo, publisher := newPresenceServiceWithMocks()
	ctx := context.Background()

	user := presenceUser(1, "alice", models.UserStatusBusy)
	user.QuietHoursActive = true
	userRepo.On("UpdatePresence", ctx, uint(1), mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["status"] == models.UserStatusOnline
	})).Return(nil)
	publisher.On("PublishUserStatusUpdate", ctx, "alice", models.UserStatusOnline, models.MuteScopeEveryone).Return(nil)

	require.NoError(t, svc.ExitQuietHours(ctx, user))
	userRepo.AssertExpectations(t)
}
