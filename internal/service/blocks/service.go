package blocks

import (
	"context"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Unmatcher drops an existing match when one side blocks the other.
type Unmatcher interface {
	Lookup(ctx context.Context, a, b string) (*db.Match, error)
	RemoveMatch(ctx context.Context, matchID, requesterID string) error
}

// Service manages the block list.
type Service struct {
	appCtx   *app.AppContext
	blocks   *repository.BlockRepository
	profiles *repository.ProfileRepository
	matches  Unmatcher
}

func NewService(appCtx *app.AppContext, matches Unmatcher) *Service {
	return &Service{
		appCtx:   appCtx,
		blocks:   repository.NewBlockRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		matches:  matches,
	}
}

// Block hides blocker and blocked from each other.
//
// Behavior:
//   - blocker == blocked → SelfAction.
//   - Unknown blocked user → NotFound.
//   - Blocking twice is a no-op.
//   - A match between the two is removed on the blocker's behalf.
func (s *Service) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return svcErr.SelfAction("cannot block yourself")
	}
	if _, err := s.profiles.Get(ctx, blockedID); err != nil {
		if svcErr.IsNotFound(err) {
			return svcErr.NotFound("bad user id")
		}
		return err
	}

	created, err := s.blocks.Create(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	s.appCtx.Logger.Info("user blocked", "blocker", blockerID, "blocked", blockedID)

	if s.matches == nil {
		return nil
	}
	m, err := s.matches.Lookup(ctx, blockerID, blockedID)
	if err != nil || m == nil {
		return err
	}
	if err := s.matches.RemoveMatch(ctx, m.ID, blockerID); err != nil && !svcErr.IsNotFound(err) {
		return err
	}
	return nil
}

// Unblock lifts a block placed by blocker. Missing block → NotFound.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID string) error {
	removed, err := s.blocks.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !removed {
		return svcErr.NotFound("user %s is not blocked", blockedID)
	}
	s.appCtx.Logger.Info("user unblocked", "blocker", blockerID, "blocked", blockedID)
	return nil
}
