package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
)

// ProfileRepository reads profiles and owns the two counters this service
// writes: rating and daily_quota.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Get returns the profile of userID or gorm.ErrRecordNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetVisible is Get restricted to visible profiles.
func (r *ProfileRepository) GetVisible(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND visible = ?", userID, true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByIDs loads the given profiles keyed by user id. Missing ids are skipped.
func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) (map[string]db.Profile, error) {
	out := make(map[string]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// ClaimQuota atomically bumps daily_quota when it is still below limit.
// Returns false once the quota is spent.
func (r *ProfileRepository) ClaimQuota(ctx context.Context, userID string, limit int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ? AND daily_quota < ?", userID, limit).
		UpdateColumn("daily_quota", gorm.Expr("daily_quota + 1"))
	return res.RowsAffected == 1, res.Error
}

// ResetQuotas zeroes every daily counter. Running it twice is harmless.
func (r *ProfileRepository) ResetQuotas(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("daily_quota <> ?", 0).
		UpdateColumn("daily_quota", 0)
	return res.RowsAffected, res.Error
}

// CompareAndSetRating writes next only if the stored rating still equals prev.
// A false result means another writer got there first.
func (r *ProfileRepository) CompareAndSetRating(ctx context.Context, userID string, prev, next float64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ? AND rating = ?", userID, prev).
		UpdateColumn("rating", next)
	return res.RowsAffected == 1, res.Error
}

// candidatePool selects profiles `me` may be shown: same city, other gender,
// visible, not yet decided on, not blocked in either direction.
func (r *ProfileRepository) candidatePool(ctx context.Context, me *db.Profile) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("profiles.user_id <> ? AND profiles.city = ? AND profiles.gender <> ? AND profiles.visible = ?",
			me.UserID, me.City, me.Gender, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM preferences p
				WHERE p.liker_id = ? AND p.target_id = profiles.user_id
			)`, me.UserID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = profiles.user_id)
				   OR (b.blocked_id = ? AND b.blocker_id = profiles.user_id)
			)`, me.UserID, me.UserID)
}

// CandidatesAbove returns pool members rated >= me, closest first.
func (r *ProfileRepository) CandidatesAbove(ctx context.Context, me *db.Profile, offset, limit int) ([]db.Profile, error) {
	var out []db.Profile
	err := r.candidatePool(ctx, me).
		Where("profiles.rating >= ?", me.Rating).
		Order("profiles.rating ASC, profiles.user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CandidatesBelow returns pool members rated < me, closest first.
func (r *ProfileRepository) CandidatesBelow(ctx context.Context, me *db.Profile, offset, limit int) ([]db.Profile, error) {
	var out []db.Profile
	err := r.candidatePool(ctx, me).
		Where("profiles.rating < ?", me.Rating).
		Order("profiles.rating DESC, profiles.user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
