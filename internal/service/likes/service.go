package likes

import (
	"context"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

const inboxPageSize = 5

// Scorer updates ratings after a decision.
type Scorer interface {
	ApplyLike(ctx context.Context, targetID string) (float64, error)
	ApplySkip(ctx context.Context, targetID string) (float64, error)
}

// MatchTrigger is told about every like so it can check for a match.
// It must not block.
type MatchTrigger interface {
	Enqueue(likerID, targetID string)
}

// Ledger records like/skip decisions and serves the "liked you" inbox.
type Ledger struct {
	appCtx   *app.AppContext
	prefs    *repository.PreferenceRepository
	profiles *repository.ProfileRepository
	blocks   *repository.BlockRepository
	scorer   Scorer
	matches  MatchTrigger
}

// NewLedger creates a Ledger with repositories from AppContext.
func NewLedger(appCtx *app.AppContext, scorer Scorer, matches MatchTrigger) *Ledger {
	return &Ledger{
		appCtx:   appCtx,
		prefs:    repository.NewPreferenceRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		blocks:   repository.NewBlockRepository(appCtx.DB),
		scorer:   scorer,
		matches:  matches,
	}
}

// RecordPreference stores liker's decision on target and returns the row.
//
// Behavior:
//   - liker == target → SelfAction error.
//   - Target without a visible profile, or blocked either way → NotFound.
//   - The (liker, target) row is inserted or overwritten.
//   - Target's rating moves up on a like, down on a skip.
//   - A like hands the pair to the match trigger without waiting, also when
//     the rating update fails. That failure is still returned.
func (l *Ledger) RecordPreference(ctx context.Context, likerID, targetID string, liked bool) (*db.Preference, error) {
	l.appCtx.Logger.Debug("RecordPreference called", "liker", likerID, "target", targetID, "liked", liked)

	if likerID == targetID {
		return nil, svcErr.SelfAction("cannot like yourself")
	}

	if _, err := l.profiles.GetVisible(ctx, targetID); err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("bad user id")
		}
		return nil, err
	}
	blocked, err := l.blocks.Between(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, svcErr.NotFound("bad user id")
	}

	pref, err := l.prefs.Upsert(ctx, likerID, targetID, liked)
	if err != nil {
		l.appCtx.Logger.Error("preference upsert failed", "err", err)
		return nil, err
	}

	var scoreErr error
	if liked {
		_, scoreErr = l.scorer.ApplyLike(ctx, targetID)
	} else {
		_, scoreErr = l.scorer.ApplySkip(ctx, targetID)
	}
	if scoreErr != nil {
		l.appCtx.Logger.Error("rating update failed", "target", targetID, "err", scoreErr)
	}

	// the row is stored, so the counter and the match check follow it even
	// when the rating could not be moved
	if rc := l.appCtx.RedisCache; rc != nil {
		if err := rc.InvalidateLikeCount(ctx, targetID); err != nil {
			l.appCtx.Logger.Warn("like count cache invalidation failed", "user", targetID, "err", err)
		}
	}
	if liked {
		l.matches.Enqueue(likerID, targetID)
	}

	if scoreErr != nil {
		return nil, scoreErr
	}
	return pref, nil
}

// Liker is one entry of the "liked you" inbox.
type Liker struct {
	UserID  string `json:"userId"`
	LikedAt int64  `json:"likedAt"`
}

// ListLikedYou returns the users who liked userID, newest first, minus
// the ones userID skipped.
func (l *Ledger) ListLikedYou(ctx context.Context, userID string, pageToken *string) ([]Liker, *string, error) {
	prefs, next, err := l.prefs.GetLikers(ctx, userID, pageToken, inboxPageSize)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(prefs), next, nil
}

// ListNewLikedYou is ListLikedYou without the people userID already liked back.
func (l *Ledger) ListNewLikedYou(ctx context.Context, userID string, pageToken *string) ([]Liker, *string, error) {
	prefs, next, err := l.prefs.GetNewLikers(ctx, userID, pageToken, inboxPageSize)
	if err != nil {
		return nil, nil, err
	}
	return toLikers(prefs), next, nil
}

// CountLikedYou returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On a miss or cache error, falls back to DB via CountLikers.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (l *Ledger) CountLikedYou(ctx context.Context, userID string) (int64, error) {
	rc := l.appCtx.RedisCache
	if rc != nil {
		n, ok, err := rc.GetLikeCount(ctx, userID)
		if err != nil {
			l.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
		} else if ok {
			return n, nil
		}
	}

	count, err := l.prefs.CountLikers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rc != nil {
		if err := rc.SetLikeCount(ctx, userID, count); err != nil {
			l.appCtx.Logger.Warn("like count cache write failed", "user", userID, "err", err)
		}
	}
	return count, nil
}

func toLikers(prefs []db.Preference) []Liker {
	out := make([]Liker, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, Liker{UserID: p.LikerID, LikedAt: p.UpdatedAt.UnixMilli()})
	}
	return out
}
