package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// MatchRepository stores matches. The unique pair_key is the only thing that
// keeps concurrent creators from producing two rows for one pair.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts m unless its pair already has a match.
// Returns false (and no error) when the pair was taken.
func (r *MatchRepository) Create(ctx context.Context, m *db.Match) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(m)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetByID returns the match or gorm.ErrRecordNotFound.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByPair finds the match between a and b in either order.
func (r *MatchRepository) GetByPair(ctx context.Context, a, b string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("pair_key = ?", db.PairKey(a, b)).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForUser pages through userID's matches, newest first.
func (r *MatchRepository) ListForUser(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	cursor, err := pagination.Decode(pagination.Deref(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", ts, ts, cursor.Key)
	}

	var matches []db.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(matches, limit, func(m db.Match) pagination.Cursor {
		return pagination.At(m.ID, m.CreatedAt)
	})
	return page, next, nil
}

// DeleteForRequester removes the match and the requester's own preference
// toward the counterpart in one transaction. The counterpart's preference stays.
func (r *MatchRepository) DeleteForRequester(ctx context.Context, m *db.Match, requesterID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", m.ID).Delete(&db.Match{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.
			Where("liker_id = ? AND target_id = ?", requesterID, m.Counterpart(requesterID)).
			Delete(&db.Preference{}).Error
	})
}
