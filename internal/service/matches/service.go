package matches

import (
	"context"
	"sync"
	"time"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

const (
	backgroundTimeout = 5 * time.Second
	defaultPageSize   = 20
	maxPageSize       = 100
)

// Coordinator owns match creation, removal and lookup.
//
// A match exists only if both users liked each other, and there is never more
// than one per pair: creation relies on the unique pair key, not on locks.
type Coordinator struct {
	appCtx   *app.AppContext
	prefs    *repository.PreferenceRepository
	matches  *repository.MatchRepository
	profiles *repository.ProfileRepository

	wg sync.WaitGroup
}

// NewCoordinator creates a Coordinator with repositories from AppContext.
func NewCoordinator(appCtx *app.AppContext) *Coordinator {
	return &Coordinator{
		appCtx:   appCtx,
		prefs:    repository.NewPreferenceRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// TryCreateMatch creates the match between a and b if they like each other.
//
// Behavior:
//   - a == b → SelfAction error, checked before anything else.
//   - No mutual like → (nil, nil).
//   - Existing match → returned as is.
//   - Losing a creation race → the winner's row is returned.
func (c *Coordinator) TryCreateMatch(ctx context.Context, a, b string) (*db.Match, error) {
	if a == b {
		return nil, svcErr.SelfAction("cannot match with yourself")
	}

	mutual, err := c.prefs.BothLiked(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return nil, nil
	}

	if existing, err := c.matches.GetByPair(ctx, a, b); err == nil {
		return existing, nil
	} else if !svcErr.IsNotFound(err) {
		return nil, err
	}

	m := db.NewMatch(a, b)
	created, err := c.matches.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	if !created {
		m, err = c.matches.GetByPair(ctx, a, b)
		if err != nil {
			return nil, err
		}
	} else {
		c.appCtx.Logger.Info("match created", "match", m.ID, "user_a", m.UserA, "user_b", m.UserB)
	}

	c.remember(ctx, m)
	return m, nil
}

// Enqueue runs TryCreateMatch in the background with its own deadline.
// Failures are logged; callers never wait on it.
func (c *Coordinator) Enqueue(a, b string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if _, err := c.TryCreateMatch(ctx, a, b); err != nil {
			c.appCtx.Logger.Error("background match check failed", "liker", a, "target", b, "err", err)
		}
	}()
}

// Wait blocks until every enqueued match check has finished.
func (c *Coordinator) Wait() { c.wg.Wait() }

// Lookup returns the match between a and b, or nil if there is none.
// Redis is consulted first; any cache failure falls back to the DB.
func (c *Coordinator) Lookup(ctx context.Context, a, b string) (*db.Match, error) {
	if rc := c.appCtx.RedisCache; rc != nil {
		m, err := rc.GetMatch(ctx, a, b)
		if err != nil {
			c.appCtx.Logger.Warn("match cache read failed", "err", err)
		} else if m != nil {
			return m, nil
		}
	}

	m, err := c.matches.GetByPair(ctx, a, b)
	if svcErr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.fill(ctx, m)
	return m, nil
}

// RemoveMatch deletes the match on behalf of requester.
//
// Behavior:
//   - Unknown id → NotFound.
//   - Requester not a party → PermissionDenied.
//   - Otherwise the match and the requester's own like toward the counterpart
//     are removed together. The counterpart's like stays.
func (c *Coordinator) RemoveMatch(ctx context.Context, matchID, requesterID string) error {
	m, err := c.matches.GetByID(ctx, matchID)
	if svcErr.IsNotFound(err) {
		return svcErr.NotFound("match %s not found", matchID)
	}
	if err != nil {
		return err
	}
	if !m.Involves(requesterID) {
		return svcErr.PermissionDenied("user %s is not a party of match %s", requesterID, matchID)
	}

	if err := c.matches.DeleteForRequester(ctx, m, requesterID); err != nil {
		if svcErr.IsNotFound(err) {
			return svcErr.NotFound("match %s not found", matchID)
		}
		return err
	}
	c.forget(ctx, m)

	c.appCtx.Logger.Info("match removed", "match", m.ID, "by", requesterID)
	return nil
}

// View is one entry of a user's match list.
type View struct {
	MatchID   string     `json:"matchId"`
	CreatedAt time.Time  `json:"createdAt"`
	Profile   db.Profile `json:"profile"`
}

// ListMatches returns the counterparts of userID's matches, newest first.
func (c *Coordinator) ListMatches(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]View, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	matches, next, err := c.matches.ListForUser(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Counterpart(userID))
	}
	profiles, err := c.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	views := make([]View, 0, len(matches))
	for _, m := range matches {
		p, ok := profiles[m.Counterpart(userID)]
		if !ok {
			continue
		}
		views = append(views, View{MatchID: m.ID, CreatedAt: m.CreatedAt, Profile: p})
	}
	return views, next, nil
}

func (c *Coordinator) remember(ctx context.Context, m *db.Match) {
	if c.appCtx.RedisCache == nil {
		return
	}
	if err := c.appCtx.RedisCache.SetMatch(ctx, m); err != nil {
		c.appCtx.Logger.Warn("match cache write failed", "match", m.ID, "err", err)
	}
}

// fill caches a match read from the DB unless the pair was removed meanwhile.
func (c *Coordinator) fill(ctx context.Context, m *db.Match) {
	if c.appCtx.RedisCache == nil {
		return
	}
	if _, err := c.appCtx.RedisCache.FillMatch(ctx, m); err != nil {
		c.appCtx.Logger.Warn("match cache write failed", "match", m.ID, "err", err)
	}
}

func (c *Coordinator) forget(ctx context.Context, m *db.Match) {
	if c.appCtx.RedisCache == nil {
		return
	}
	if err := c.appCtx.RedisCache.DelMatch(ctx, m.UserA, m.UserB); err != nil {
		c.appCtx.Logger.Warn("match cache invalidation failed", "match", m.ID, "err", err)
	}
}
