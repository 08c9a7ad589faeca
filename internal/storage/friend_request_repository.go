package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"social-go/internal/models"
)

// FriendRequestRepository defines the interface for friend-request data
// operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	// FindByPair returns the request connecting the unordered pair, in any
	// status, or nil if none exists.
	FindByPair(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error)
	UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error
	Delete(ctx context.Context, requestID uint) error
	ListByUserID(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListPendingForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error)
	ListAcceptedByUserID(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a new GORM-based
// FriendRequestRepository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	request.SetPairKey()
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) FindByPair(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	low, high := models.CanonicalPair(userID1, userID2)

	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no request for this pair is not an error here
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error
}

func (r *gormFriendRequestRepository) Delete(ctx context.Context, requestID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Delete(&models.FriendRequest{}, requestID).Error
}

// ListByUserID returns every request the user is party to, most recently
// updated first.
func (r *gormFriendRequestRepository) ListByUserID(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&requests).Error
	return requests, err
}

// ListPendingForRecipient returns pending requests sent to the user, most
// recently requested first. Requests the user sent are deliberately excluded.
func (r *gormFriendRequestRepository) ListPendingForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) ListAcceptedByUserID(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, models.FriendRequestStatusAccepted).
		Order("updated_at DESC").
		Find(&requests).Error
	return requests, err
}

// GetAcceptedFriendIDs returns the IDs of everyone the user has an accepted
// request with, in either direction.
func (r *gormFriendRequestRepository) GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	requests, err := r.ListAcceptedByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	friendIDs := make([]uint, 0, len(requests))
	for _, req := range requests {
		friendIDs = append(friendIDs, req.CounterpartID(userID))
	}
	return friendIDs, nil
}
