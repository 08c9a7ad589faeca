package services

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
	ErrUserNotFound      = errors.New("user not found")
	ErrRequestNotFound   = errors.New("friend request not found")
	ErrSelfRequest       = errors.New("cannot send a friend request to yourself")
	ErrUsersBlocked      = errors.New("a block exists between these users")
	ErrRequestExists     = errors.New("a friend request already connects these users")
	ErrRequestNotPending = errors.New("friend request is no longer pending")
	ErrInvalidStatus     = errors.New("invalid friend request status")
)

// FriendService is the social-graph state machine: it owns every friend-
// request transition and derives friend lists and mutual-friend sets from
// accepted requests.
type FriendService interface {
	CreateFriendRequest(ctx context.Context, requesterUsername, recipientUsername string) (*models.FriendRequestWithUsers, error)
	UpdateFriendRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) (*models.FriendRequestWithUsers, error)
	DeleteFriendRequest(ctx context.Context, requestID uint) (*models.FriendRequestWithUsers, error)
	GetFriendRequestsByUsername(ctx context.Context, username string) ([]*models.FriendRequestWithUsers, error)
	GetPendingFriendRequests(ctx context.Context, username string) ([]*models.FriendRequestWithUsers, error)
	GetFriendsByUsername(ctx context.Context, username string) ([]models.FriendConnection, error)
	GetMutualFriends(ctx context.Context, usernameA, usernameB string) ([]*models.UserBasicInfo, error)
}

type friendService struct {
	userRepo   storage.UserRepository
	friendRepo storage.FriendRequestRepository
	blockRepo  storage.BlockRepository
	publisher  events.Publisher
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(
	userRepo storage.UserRepository,
	friendRepo storage.FriendRequestRepository,
	blockRepo storage.BlockRepository,
	publisher events.Publisher,
) FriendService {
	return &friendService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		blockRepo:  blockRepo,
		publisher:  publisher,
	}
}

// CreateFriendRequest validates and creates a request from requester to
// recipient. A recipient with a public profile auto-accepts: the record is
// created directly in accepted status with no approval step. Any existing
// request for the unordered pair, in any status, is a conflict; a rejected
// request must be deleted before the pair can try again.
func (s *friendService) CreateFriendRequest(ctx context.Context, requesterUsername, recipientUsername string) (*models.FriendRequestWithUsers, error) {
	if requesterUsername == recipientUsername {
		return nil, ErrSelfRequest
	}

	requester, err := s.lookupUser(ctx, requesterUsername)
	if err != nil {
		return nil, err
	}
	recipient, err := s.lookupUser(ctx, recipientUsername)
	if err != nil {
		return nil, err
	}
	if requester.ID == recipient.ID {
		return nil, ErrSelfRequest
	}

	blocked, err := s.blockRepo.ExistsBetween(ctx, requester.ID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks between %s and %s: %w", requesterUsername, recipientUsername, err)
	}
	if blocked {
		return nil, ErrUsersBlocked
	}

	existing, err := s.friendRepo.FindByPair(ctx, requester.ID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request between %s and %s: %w", requesterUsername, recipientUsername, err)
	}
	if existing != nil {
		return nil, ErrRequestExists
	}

	status := models.FriendRequestStatusPending
	if recipient.ProfileVisibility == models.ProfileVisibilityPublic {
		status = models.FriendRequestStatusAccepted
	}

	request := &models.FriendRequest{
		RequesterID: requester.ID,
		RecipientID: recipient.ID,
		Status:      status,
	}
	if err := s.friendRepo.Create(ctx, request); err != nil {
		// The unique pair index backstops the existence check above; a
		// concurrent create for the same pair surfaces here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRequestExists
		}
		return nil, fmt.Errorf("failed to create friend request %s -> %s: %w", requesterUsername, recipientUsername, err)
	}

	dto := &models.FriendRequestWithUsers{
		FriendRequest: *request,
		Requester:     requester.BasicInfo(),
		Recipient:     recipient.BasicInfo(),
	}
	s.emit(ctx, dto, events.ChangeCreated)
	return dto, nil
}

// UpdateFriendRequestStatus moves a pending request to accepted or rejected.
// Terminal requests reject further transitions rather than being overwritten.
func (s *friendService) UpdateFriendRequestStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) (*models.FriendRequestWithUsers, error) {
	if !models.ValidTransitionTarget(status) {
		return nil, ErrInvalidStatus
	}

	request, err := s.lookupRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	if err := s.friendRepo.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, fmt.Errorf("failed to update friend request %d to %s: %w", requestID, status, err)
	}
	request.Status = status

	dto, err := s.decorate(ctx, request)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, dto, events.ChangeUpdated)
	return dto, nil
}

// DeleteFriendRequest removes a request in any state: cancel (pending),
// unfriend (accepted) or clearing a rejection so the pair can re-request.
// The deleted record is returned for the fan-out payload.
func (s *friendService) DeleteFriendRequest(ctx context.Context, requestID uint) (*models.FriendRequestWithUsers, error) {
	request, err := s.lookupRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	dto, err := s.decorate(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := s.friendRepo.Delete(ctx, requestID); err != nil {
		return nil, fmt.Errorf("failed to delete friend request %d: %w", requestID, err)
	}

	s.emit(ctx, dto, events.ChangeDeleted)
	return dto, nil
}

// GetFriendRequestsByUsername returns every request the user is party to,
// most recently updated first.
func (s *friendService) GetFriendRequestsByUsername(ctx context.Context, username string) ([]*models.FriendRequestWithUsers, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	requests, err := s.friendRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests for %s: %w", username, err)
	}
	return s.decorateAll(ctx, requests)
}

// GetPendingFriendRequests returns pending requests sent to the user, most
// recently requested first. A user reviews requests sent to them, not
// requests they sent.
func (s *friendService) GetPendingFriendRequests(ctx context.Context, username string) ([]*models.FriendRequestWithUsers, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	requests, err := s.friendRepo.ListPendingForRecipient(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for %s: %w", username, err)
	}
	return s.decorateAll(ctx, requests)
}

// GetFriendsByUsername maps the user's accepted requests to the counterpart
// of each, attaching the counterpart's current presence.
func (s *friendService) GetFriendsByUsername(ctx context.Context, username string) ([]models.FriendConnection, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	accepted, err := s.friendRepo.ListAcceptedByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends for %s: %w", username, err)
	}

	requestByFriendID := make(map[uint]uint, len(accepted))
	friendIDs := make([]uint, 0, len(accepted))
	for _, req := range accepted {
		counterpartID := req.CounterpartID(user.ID)
		requestByFriendID[counterpartID] = req.ID
		friendIDs = append(friendIDs, counterpartID)
	}

	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend info for %s: %w", username, err)
	}

	connections := make([]models.FriendConnection, 0, len(infos))
	for _, info := range infos {
		connections = append(connections, models.FriendConnection{
			UserID:    info.ID,
			Username:  info.Username,
			RequestID: requestByFriendID[info.ID],
			Status:    info.Status,
		})
	}
	return connections, nil
}

// GetMutualFriends intersects both users' accepted-friend sets. Symmetric in
// its arguments. Friend lists are expected to be small; no pagination.
func (s *friendService) GetMutualFriends(ctx context.Context, usernameA, usernameB string) ([]*models.UserBasicInfo, error) {
	userA, err := s.lookupUser(ctx, usernameA)
	if err != nil {
		return nil, err
	}
	userB, err := s.lookupUser(ctx, usernameB)
	if err != nil {
		return nil, err
	}

	friendsA, err := s.friendRepo.GetAcceptedFriendIDs(ctx, userA.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend IDs for %s: %w", usernameA, err)
	}
	friendsB, err := s.friendRepo.GetAcceptedFriendIDs(ctx, userB.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend IDs for %s: %w", usernameB, err)
	}

	inA := make(map[uint]bool, len(friendsA))
	for _, id := range friendsA {
		inA[id] = true
	}
	var mutualIDs []uint
	for _, id := range friendsB {
		if inA[id] {
			mutualIDs = append(mutualIDs, id)
		}
	}
	if len(mutualIDs) == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, mutualIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load mutual friend info: %w", err)
	}
	return infos, nil
}

func (s *friendService) lookupUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	return user, nil
}

func (s *friendService) lookupRequest(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	request, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to look up friend request %d: %w", requestID, err)
	}
	return request, nil
}

// decorate attaches both parties' basic info to a request.
func (s *friendService) decorate(ctx context.Context, request *models.FriendRequest) (*models.FriendRequestWithUsers, error) {
	requester, err := s.userRepo.GetBasicInfoByID(ctx, request.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester %d: %w", request.RequesterID, err)
	}
	recipient, err := s.userRepo.GetBasicInfoByID(ctx, request.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient %d: %w", request.RecipientID, err)
	}
	return &models.FriendRequestWithUsers{
		FriendRequest: *request,
		Requester:     requester,
		Recipient:     recipient,
	}, nil
}

func (s *friendService) decorateAll(ctx context.Context, requests []models.FriendRequest) ([]*models.FriendRequestWithUsers, error) {
	dtos := make([]*models.FriendRequestWithUsers, 0, len(requests))

	idSet := make(map[uint]bool, len(requests)*2)
	var ids []uint
	for _, req := range requests {
		for _, id := range []uint{req.RequesterID, req.RecipientID} {
			if !idSet[id] {
				idSet[id] = true
				ids = append(ids, id)
			}
		}
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load request participants: %w", err)
	}
	infoByID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		infoByID[info.ID] = info
	}

	for _, req := range requests {
		dtos = append(dtos, &models.FriendRequestWithUsers{
			FriendRequest: req,
			Requester:     infoByID[req.RequesterID],
			Recipient:     infoByID[req.RecipientID],
		})
	}
	return dtos, nil
}

// emit publishes the transition on the fan-out bus. The write has already
// committed; a failed publish is logged, not surfaced to the caller.
func (s *friendService) emit(ctx context.Context, dto *models.FriendRequestWithUsers, change events.ChangeType) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFriendRequestUpdate(ctx, dto, change); err != nil {
		log.Printf("Failed to publish friendRequestUpdate (%s) for request %d: %v", change, dto.ID, err)
	}
}
