package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"social-go/internal/models"
)

// BlockRepository defines the interface for user-block data operations.
type BlockRepository interface {
	Create(ctx context.Context, block *models.UserBlock) error
	Delete(ctx context.Context, blockerID, blockedID uint) error
	// ExistsBetween reports whether a block exists in either direction.
	ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error)
	ListBlockedIDs(ctx context.Context, blockerID uint) ([]uint, error)
}

type gormBlockRepository struct {
	db *gorm.DB
}

// NewGormBlockRepository creates a new GORM-based BlockRepository.
func NewGormBlockRepository(db *gorm.DB) BlockRepository {
	return &gormBlockRepository{db: db}
}

func (r *gormBlockRepository) Create(ctx context.Context, block *models.UserBlock) error {
	// Re-blocking an already blocked user is a no-op, not an error.
	err := r.db.WithContext(ctx).Create(block).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *gormBlockRepository) Delete(ctx context.Context, blockerID, blockedID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{}).Error
}

func (r *gormBlockRepository) ExistsBetween(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID1, userID2, userID2, userID1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormBlockRepository) ListBlockedIDs(ctx context.Context, blockerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.UserBlock{}).
		Where("blocker_id = ?", blockerID).
		Pluck("blocked_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
