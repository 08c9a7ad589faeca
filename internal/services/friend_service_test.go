package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"social-go/internal/events"
	"social-go/internal/mocks"
	"social-go/internal/models"
)

func newFriendServiceWithMocks() (FriendService, *mocks.MockUserRepository, *mocks.MockFriendRequestRepository, *mocks.MockBlockRepository, *mocks.MockPublisher) {
	userRepo := new(mocks.MockUserRepository)
	friendRepo := new(mocks.MockFriendRequestRepository)
	blockRepo := new(mocks.MockBlockRepository)
	publisher := new(mocks.MockPublisher)
	svc := NewFriendService(userRepo, friendRepo, blockRepo, publisher)
	return svc, userRepo, friendRepo, blockRepo, publisher
}

func testUser(id uint, username string, visibility models.ProfileVisibility) *models.User {
	return &models.User{
		BaseModel:         models.BaseModel{ID: id},
		Username:          username,
		Status:            models.UserStatusOnline,
		ProfileVisibility: visibility,
	}
}

func TestCreateFriendRequest_PendingForPrivateRecipient(t *testing.T) {
	svc, userRepo, friendRepo, blockRepo, publisher := newFriendServiceWithMocks()
	ctx := context.Background()

	alice := testUser(1, "alice", models.ProfileVisibilityPrivate)
	bob := testUser(2, "bob", models.ProfileVisibilityPrivate)

	userRepo.On("GetByUsername", ctx, "alice").Return(alice, nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(bob, nil)
	blockRepo.On("ExistsBetween", ctx, uint(1), uint(2)).Return(false, nil)
	friendRepo.On("FindByPair", ctx, uint(1), uint(2)).Return(nil, nil)
	friendRepo.On("Create", ctx, mock.AnythingOfType("*models.FriendRequest")).Return(nil)
	publisher.On("PublishFriendRequestUpdate", ctx, mock.Anything, events.ChangeCreated).Return(nil)

	dto, err := svc.CreateFriendRequest(ctx, "alice", "bob")

	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusPending, dto.Status)
	assert.Equal(t, uint(1), dto.RequesterID)
	assert.Equal(t, uint(2), dto.RecipientID)
	assert.Equal(t, "alice", dto.Requester.Username)
	assert.Equal(t, "bob", dto.Recipient.Username)
	friendRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateFriendRequest_AutoAcceptForPublicRecipient(t *testing.T) {
	svc, userRepo, friendRepo, blockRepo, publisher := newFriendServiceWithMocks()
	ctx := context.Background()

	alice := testUser(1, "alice", models.ProfileVisibilityPrivate)
	bob := testUser(2, "bob", models.ProfileVisibilityPublic)

	userRepo.On("GetByUsername", ctx, "alice").Return(alice, nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(bob, nil)
	blockRepo.On("ExistsBetween", ctx, uint(1), uint(2)).Return(false, nil)
	friendRepo.On("FindByPair", ctx, uint(1), uint(2)).Return(nil, nil)
	friendRepo.On("Create", ctx, mock.MatchedBy(func(fr *models.FriendRequest) bool {
		return fr.Status == models.FriendRequestStatusAccepted
	})).Return(nil)
	publisher.On("PublishFriendRequestUpdate", ctx, mock.Anything, events.ChangeCreated).Return(nil)

	dto, err := svc.CreateFriendRequest(ctx, "alice", "bob")

	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusAccepted, dto.Status)
	friendRepo.AssertExpectations(t)
}

func TestCreateFriendRequest_SelfRequest(t *testing.T) {
	svc, _, friendRepo, _, _ := newFriendServiceWithMocks()

	_, err := svc.CreateFriendRequest(context.Background(), "alice", "alice")

	assert.ErrorIs(t, err, ErrSelfRequest)
	friendRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFriendRequest_RecipientNotFound(t *testing.T) {
	svc, userRepo, _, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	alice := testUser(1, "alice", models.ProfileVisibilityPrivate)
	userRepo.On("GetByUsername", ctx, "alice").Return(alice, nil)
	userRepo.On("GetByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.CreateFriendRequest(ctx, "alice", "ghost")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateFriendRequest_BlockedPair(t *testing.T) {
	svc, userRepo, friendRepo, blockRepo, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(testUser(1, "alice", models.ProfileVisibilityPrivate), nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(testUser(2, "bob", models.ProfileVisibilityPrivate), nil)
	blockRepo.On("ExistsBetween", ctx, uint(1), uint(2)).Return(true, nil)

	_, err := svc.CreateFriendRequest(ctx, "alice", "bob")

	assert.ErrorIs(t, err, ErrUsersBlocked)
	friendRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFriendRequest_ExistingRequestConflicts(t *testing.T) {
	svc, userRepo, friendRepo, blockRepo, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(testUser(1, "alice", models.ProfileVisibilityPrivate), nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(testUser(2, "bob", models.ProfileVisibilityPrivate), nil)
	blockRepo.On("ExistsBetween", ctx, uint(1), uint(2)).Return(false, nil)

	// A rejected request still occupies the pair until it is deleted.
	existing := &models.FriendRequest{
		BaseModel:   models.BaseModel{ID: 7},
		RequesterID: 2,
		RecipientID: 1,
		Status:      models.FriendRequestStatusRejected,
	}
	friendRepo.On("FindByPair", ctx, uint(1), uint(2)).Return(existing, nil)

	_, err := svc.CreateFriendRequest(ctx, "alice", "bob")

	assert.ErrorIs(t, err, ErrRequestExists)
	friendRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFriendRequest_ConcurrentDuplicateSurfacesAsConflict(t *testing.T) {
	svc, userRepo, friendRepo, blockRepo, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(testUser(1, "alice", models.ProfileVisibilityPrivate), nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(testUser(2, "bob", models.ProfileVisibilityPrivate), nil)
	blockRepo.On("ExistsBetween", ctx, uint(1), uint(2)).Return(false, nil)
	friendRepo.On("FindByPair", ctx, uint(1), uint(2)).Return(nil, nil)
	// Unique pair index fires when two creates race past the existence check.
	friendRepo.On("Create", ctx, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, err := svc.CreateFriendRequest(ctx, "alice", "bob")

	assert.ErrorIs(t, err, ErrRequestExists)
}

func TestUpdateFriendRequestStatus_AcceptPending(t *testing.T) {
	svc, userRepo, friendRepo, _, publisher := newFriendServiceWithMocks()
	ctx := context.Background()

	pending := &models.FriendRequest{
		BaseModel:   models.BaseModel{ID: 5},
		RequesterID: 1,
		RecipientID: 2,
		Status:      models.FriendRequestStatusPending,
	}
	friendRepo.On("GetByID", ctx, uint(5)).Return(pending, nil)
	friendRepo.On("UpdateStatus", ctx, uint(5), models.FriendRequestStatusAccepted).Return(nil)
	userRepo.On("GetBasicInfoByID", ctx, uint(1)).Return(&models.UserBasicInfo{ID: 1, Username: "alice"}, nil)
	userRepo.On("GetBasicInfoByID", ctx, uint(2)).Return(&models.UserBasicInfo{ID: 2, Username: "bob"}, nil)
	publisher.On("PublishFriendRequestUpdate", ctx, mock.Anything, events.ChangeUpdated).Return(nil)

	dto, err := svc.UpdateFriendRequestStatus(ctx, 5, models.FriendRequestStatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusAccepted, dto.Status)
	friendRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateFriendRequestStatus_TerminalRequestConflicts(t *testing.T) {
	svc, _, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	accepted := &models.FriendRequest{
		BaseModel: models.BaseModel{ID: 5},
		Status:    models.FriendRequestStatusAccepted,
	}
	friendRepo.On("GetByID", ctx, uint(5)).Return(accepted, nil)

	_, err := svc.UpdateFriendRequestStatus(ctx, 5, models.FriendRequestStatusRejected)

	assert.ErrorIs(t, err, ErrRequestNotPending)
	friendRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateFriendRequestStatus_InvalidTarget(t *testing.T) {
	svc, _, friendRepo, _, _ := newFriendServiceWithMocks()

	// pending is not a transition target, nor is garbage.
	_, err := svc.UpdateFriendRequestStatus(context.Background(), 5, models.FriendRequestStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateFriendRequestStatus(context.Background(), 5, models.FriendRequestStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	friendRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateFriendRequestStatus_NotFound(t *testing.T) {
	svc, _, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	friendRepo.On("GetByID", ctx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.UpdateFriendRequestStatus(ctx, 99, models.FriendRequestStatusAccepted)

	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDeleteFriendRequest_ReturnsDeletedRecord(t *testing.T) {
	svc, userRepo, friendRepo, _, publisher := newFriendServiceWithMocks()
	ctx := context.Background()

	rejected := &models.FriendRequest{
		BaseModel:   models.BaseModel{ID: 8},
		RequesterID: 1,
		RecipientID: 2,
		Status:      models.FriendRequestStatusRejected,
	}
	friendRepo.On("GetByID", ctx, uint(8)).Return(rejected, nil)
	userRepo.On("GetBasicInfoByID", ctx, uint(1)).Return(&models.UserBasicInfo{ID: 1, Username: "alice"}, nil)
	userRepo.On("GetBasicInfoByID", ctx, uint(2)).Return(&models.UserBasicInfo{ID: 2, Username: "bob"}, nil)
	friendRepo.On("Delete", ctx, uint(8)).Return(nil)
	publisher.On("PublishFriendRequestUpdate", ctx, mock.Anything, events.ChangeDeleted).Return(nil)

	dto, err := svc.DeleteFriendRequest(ctx, 8)

	require.NoError(t, err)
	assert.Equal(t, uint(8), dto.ID)
	assert.Equal(t, models.FriendRequestStatusRejected, dto.Status)
	friendRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestGetPendingFriendRequests_OnlyIncomingPending(t *testing.T) {
	svc, userRepo, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	bob := testUser(2, "bob", models.ProfileVisibilityPrivate)
	userRepo.On("GetByUsername", ctx, "bob").Return(bob, nil)

	incoming := []models.FriendRequest{
		{BaseModel: models.BaseModel{ID: 3}, RequesterID: 1, RecipientID: 2, Status: models.FriendRequestStatusPending},
	}
	friendRepo.On("ListPendingForRecipient", ctx, uint(2)).Return(incoming, nil)
	userRepo.On("GetMultipleBasicInfoByIDs", ctx, mock.Anything).Return([]*models.UserBasicInfo{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
	}, nil)

	dtos, err := svc.GetPendingFriendRequests(ctx, "bob")

	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "alice", dtos[0].Requester.Username)
	assert.Equal(t, "bob", dtos[0].Recipient.Username)
}

func TestGetFriendsByUsername_MapsCounterparts(t *testing.T) {
	svc, userRepo, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	alice := testUser(1, "alice", models.ProfileVisibilityPrivate)
	userRepo.On("GetByUsername", ctx, "alice").Return(alice, nil)

	// One friendship in each direction; both map to the counterpart.
	accepted := []models.FriendRequest{
		{BaseModel: models.BaseModel{ID: 10}, RequesterID: 1, RecipientID: 2, Status: models.FriendRequestStatusAccepted},
		{BaseModel: models.BaseModel{ID: 11}, RequesterID: 3, RecipientID: 1, Status: models.FriendRequestStatusAccepted},
	}
	friendRepo.On("ListAcceptedByUserID", ctx, uint(1)).Return(accepted, nil)
	userRepo.On("GetMultipleBasicInfoByIDs", ctx, []uint{2, 3}).Return([]*models.UserBasicInfo{
		{ID: 2, Username: "bob", Status: models.UserStatusOnline},
		{ID: 3, Username: "carol", Status: models.UserStatusBusy},
	}, nil)

	friends, err := svc.GetFriendsByUsername(ctx, "alice")

	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].Username)
	assert.Equal(t, uint(10), friends[0].RequestID)
	assert.Equal(t, models.UserStatusOnline, friends[0].Status)
	assert.Equal(t, "carol", friends[1].Username)
	assert.Equal(t, uint(11), friends[1].RequestID)
	assert.Equal(t, models.UserStatusBusy, friends[1].Status)
}

func TestGetMutualFriends_Intersection(t *testing.T) {
	svc, userRepo, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(testUser(1, "alice", models.ProfileVisibilityPrivate), nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(testUser(2, "bob", models.ProfileVisibilityPrivate), nil)
	friendRepo.On("GetAcceptedFriendIDs", ctx, uint(1)).Return([]uint{3, 4, 5}, nil)
	friendRepo.On("GetAcceptedFriendIDs", ctx, uint(2)).Return([]uint{4, 5, 6}, nil)
	userRepo.On("GetMultipleBasicInfoByIDs", ctx, []uint{4, 5}).Return([]*models.UserBasicInfo{
		{ID: 4, Username: "carol"},
		{ID: 5, Username: "dave"},
	}, nil)

	mutual, err := svc.GetMutualFriends(ctx, "alice", "bob")

	require.NoError(t, err)
	require.Len(t, mutual, 2)
	assert.Equal(t, "carol", mutual[0].Username)
	assert.Equal(t, "dave", mutual[1].Username)
}

func TestGetMutualFriends_NoOverlapReturnsEmptySlice(t *testing.T) {
	svc, userRepo, friendRepo, _, _ := newFriendServiceWithMocks()
	ctx := context.Background()

	userRepo.On("GetByUsername", ctx, "alice").Return(testUser(1, "alice", models.ProfileVisibilityPrivate), nil)
	userRepo.On("GetByUsername", ctx, "bob").Return(testUser(2, "bob", models.ProfileVisibilityPrivate), nil)
	friendRepo.On("GetAcceptedFriendIDs", ctx, uint(1)).Return([]uint{3}, nil)
	friendRepo.On("GetAcceptedFriendIDs", ctx, uint(2)).Return([]uint{4}, nil)

	mutual, err := svc.GetMutualFriends(ctx, "alice", "bob")

	require.NoError(t, err)
	assert.Empty(t, mutual)
	userRepo.AssertNotCalled(t, "GetMultipleBasicInfoByIDs", mock.Anything, mock.Anything)
}

func TestCanonicalPairOrdering(t *testing.T) {
	low, high := models.CanonicalPair(9, 3)
	assert.Equal(t, uint(3), low)
	assert.Equal(t, uint(9), high)

	low, high = models.CanonicalPair(3, 9)
	assert.Equal(t, uint(3), low)
	assert.Equal(t, uint(9), high)
}
