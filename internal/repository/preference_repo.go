package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// PreferenceRepository provides data access methods for the Preference model.
// It encapsulates all queries related to likes/skips between users.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new repository bound to the given DB connection.
func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// Upsert inserts or overwrites the decision made by liker -> target and
// returns the stored row.
//
// Behavior:
//   - If (liker_id, target_id) exists → liked and updated_at are overwritten.
//   - Otherwise a new row is inserted.
//
// Example:
//
//	repo.Upsert(ctx, "a", "b", true) // a liked b
func (r *PreferenceRepository) Upsert(
	ctx context.Context,
	likerID, targetID string,
	liked bool,
) (*db.Preference, error) {
	pref := db.Preference{
		LikerID:  likerID,
		TargetID: targetID,
		Liked:    liked,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&pref).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, likerID, targetID)
}

// Get returns the liker -> target row or gorm.ErrRecordNotFound.
func (r *PreferenceRepository) Get(ctx context.Context, likerID, targetID string) (*db.Preference, error) {
	var pref db.Preference
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND target_id = ?", likerID, targetID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// HasLiked checks whether liker has a liked=true row for target.
func (r *PreferenceRepository) HasLiked(ctx context.Context, likerID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Preference{}).
		Where("liker_id = ? AND target_id = ? AND liked = ?", likerID, targetID, true).
		Count(&count).Error
	return count > 0, err
}

// BothLiked reports whether a and b have liked each other.
func (r *PreferenceRepository) BothLiked(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Preference{}).
		Where("liked = ?", true).
		Where("(liker_id = ? AND target_id = ?) OR (liker_id = ? AND target_id = ?)", a, b, b, a).
		Count(&count).Error
	return count == 2, err
}

// Delete removes the liker -> target row. Missing rows are not an error.
func (r *PreferenceRepository) Delete(ctx context.Context, likerID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("liker_id = ? AND target_id = ?", likerID, targetID).
		Delete(&db.Preference{}).Error
}

// PurgeSkipsBefore deletes skips last touched before cutoff so those profiles
// become candidates again. Likes are never purged.
func (r *PreferenceRepository) PurgeSkipsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("liked = ? AND updated_at < ?", false, cutoff).
		Delete(&db.Preference{})
	return res.RowsAffected, res.Error
}

// likersQuery selects likes received by targetID, minus likers the target skipped.
func (r *PreferenceRepository) likersQuery(ctx context.Context, targetID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("preferences p").
		Where("p.target_id = ? AND p.liked = ?", targetID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM preferences p2
				WHERE p2.liker_id = ?
				  AND p2.target_id = p.liker_id
				  AND p2.liked = ?
			)`, targetID, false)
}

func (r *PreferenceRepository) pageLikers(
	query *gorm.DB,
	paginationToken *string,
	limit int,
) ([]db.Preference, *string, error) {
	cursor, err := pagination.Decode(pagination.Deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query = query.Order("p.updated_at DESC, p.liker_id DESC").Limit(limit + 1)
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(p.updated_at < ? OR (p.updated_at = ? AND p.liker_id < ?))",
			ts, ts, cursor.Key,
		)
	}

	var prefs []db.Preference
	if err := query.Find(&prefs).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(prefs, limit, func(p db.Preference) pagination.Cursor {
		return pagination.At(p.LikerID, p.UpdatedAt)
	})
	return page, next, nil
}

// GetLikers returns the users who liked targetID.
//
// Behavior:
//   - Only rows where target_id = X and liked = true are returned.
//   - Excludes users that the target explicitly skipped.
//   - Ordered by updated_at DESC, liker_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *PreferenceRepository) GetLikers(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
) ([]db.Preference, *string, error) {
	return r.pageLikers(r.likersQuery(ctx, targetID), paginationToken, limit)
}

// GetNewLikers is GetLikers minus mutual likes: people still waiting for an answer.
func (r *PreferenceRepository) GetNewLikers(
	ctx context.Context,
	targetID string,
	paginationToken *string,
	limit int,
) ([]db.Preference, *string, error) {
	subQuery := r.db.
		Table("preferences").
		Select("1").
		Where("liker_id = p.target_id AND target_id = p.liker_id AND liked = ?", true)

	query := r.likersQuery(ctx, targetID).Where("NOT EXISTS (?)", subQuery)
	return r.pageLikers(query, paginationToken, limit)
}

// CountLikers returns how many users liked targetID (same filter as GetLikers).
// Used in conjunction with the Redis cache (DB is fallback).
func (r *PreferenceRepository) CountLikers(ctx context.Context, targetID string) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, targetID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
