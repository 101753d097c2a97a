package candidates

import (
	"context"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Selector builds the daily candidate pages.
type Selector struct {
	appCtx     *app.AppContext
	profiles   *repository.ProfileRepository
	perSide    int
	dailyQuota int
}

// NewSelector reads page shape and quota from AppContext config.
func NewSelector(appCtx *app.AppContext) *Selector {
	perSide, quota := 3, 3
	if cfg := appCtx.Config; cfg != nil {
		if cfg.Candidates.PerSide > 0 {
			perSide = cfg.Candidates.PerSide
		}
		if cfg.Candidates.DailyQuota > 0 {
			quota = cfg.Candidates.DailyQuota
		}
	}
	return &Selector{
		appCtx:     appCtx,
		profiles:   repository.NewProfileRepository(appCtx.DB),
		perSide:    perSide,
		dailyQuota: quota,
	}
}

// ListCandidates returns page `page` of profiles for userID.
//
// Behavior:
//   - Unknown user → NotFound.
//   - Every call spends one unit of the daily quota; a spent quota yields an
//     empty page.
//   - Pool: same city, other gender, visible, not yet liked or skipped, not
//     blocked either way, never the requester.
//   - Up to perSide profiles rated >= the requester (closest first) are
//     interleaved with up to perSide rated below (closest first).
func (s *Selector) ListCandidates(ctx context.Context, userID string, page int) ([]db.Profile, error) {
	if page < 0 {
		return nil, svcErr.InvalidArgument("page must be >= 0")
	}

	me, err := s.profiles.Get(ctx, userID)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.NotFound("no profile for user %s", userID)
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.profiles.ClaimQuota(ctx, userID, s.dailyQuota)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.appCtx.Logger.Debug("candidate quota spent", "user", userID)
		return []db.Profile{}, nil
	}

	offset := page * s.perSide
	above, err := s.profiles.CandidatesAbove(ctx, me, offset, s.perSide)
	if err != nil {
		return nil, err
	}
	below, err := s.profiles.CandidatesBelow(ctx, me, offset, s.perSide)
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Debug("candidates selected", "user", userID, "page", page, "above", len(above), "below", len(below))
	return Interleave(above, below), nil
}

// ResetDailyQuotas zeroes every user's counter. Idempotent.
func (s *Selector) ResetDailyQuotas(ctx context.Context) (int64, error) {
	return s.profiles.ResetQuotas(ctx)
}

// Interleave alternates a[0], b[0], a[1], b[1], ... and appends whatever is
// left of the longer slice.
func Interleave[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}
