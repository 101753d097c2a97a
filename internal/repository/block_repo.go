package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
)

// BlockRepository stores one-way blocks. Reads treat them as symmetric.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create blocks blocked for blocker. Returns false if it already existed.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Block{BlockerID: blockerID, BlockedID: blockedID})
	return res.RowsAffected == 1, res.Error
}

// Delete lifts a block. Returns false if there was none.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{})
	return res.RowsAffected == 1, res.Error
}

// Between reports whether either user blocked the other.
func (r *BlockRepository) Between(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}
