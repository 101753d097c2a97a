// Package score keeps profile ratings in step with the likes and skips they receive.
package score

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

const (
	likeCap = 150.0
	skipCap = 30.0

	maxAttempts = 8
)

// LikeDelta is min(150, 50 * 1000/rating). A non-positive rating gets the cap.
func LikeDelta(rating float64) float64 {
	if rating <= 0 {
		return likeCap
	}
	return math.Min(likeCap, 50*(db.DefaultRating/rating))
}

// SkipDelta is min(30, 10 * rating/1000).
func SkipDelta(rating float64) float64 {
	return math.Min(skipCap, 10*(rating/db.DefaultRating))
}

func AfterLike(rating float64) float64 { return rating + LikeDelta(rating) }
func AfterSkip(rating float64) float64 { return rating - SkipDelta(rating) }

// Tracker applies rating changes without losing concurrent updates: every
// write is a compare-and-set against the value it was computed from.
type Tracker struct {
	profiles *repository.ProfileRepository
	log      *slog.Logger
}

func NewTracker(appCtx *app.AppContext) *Tracker {
	return &Tracker{
		profiles: repository.NewProfileRepository(appCtx.DB),
		log:      appCtx.Logger,
	}
}

// ApplyLike raises the target's rating and returns the new value.
func (t *Tracker) ApplyLike(ctx context.Context, targetID string) (float64, error) {
	return t.apply(ctx, targetID, AfterLike)
}

// ApplySkip lowers the target's rating and returns the new value.
func (t *Tracker) ApplySkip(ctx context.Context, targetID string) (float64, error) {
	return t.apply(ctx, targetID, AfterSkip)
}

func (t *Tracker) apply(ctx context.Context, targetID string, next func(float64) float64) (float64, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := t.profiles.Get(ctx, targetID)
		if svcErr.IsNotFound(err) {
			return 0, svcErr.NotFound("bad user id")
		}
		if err != nil {
			return 0, err
		}

		rating := next(p.Rating)
		ok, err := t.profiles.CompareAndSetRating(ctx, targetID, p.Rating, rating)
		if err != nil {
			return 0, err
		}
		if ok {
			return rating, nil
		}
		t.log.Debug("rating changed underneath, retrying", "user", targetID, "attempt", attempt)
	}
	return 0, fmt.Errorf("rating update for %s: gave up after %d attempts", targetID, maxAttempts)
}
