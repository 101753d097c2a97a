package score_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/service/score"
	"github.com/oggyb/muzz-match/internal/testutil"
)

func TestFormulas(t *testing.T) {
	tests := []struct {
		rating float64
		like   float64
		skip   float64
	}{
		{1000, 1050, 990},
		{200, 350, 198},    // like capped at +150
		{5000, 5010, 4970}, // skip capped at -30
		{500, 600, 495},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.like, score.AfterLike(tt.rating), 1e-9, "like %v", tt.rating)
		assert.InDelta(t, tt.skip, score.AfterSkip(tt.rating), 1e-9, "skip %v", tt.rating)
	}
	assert.Equal(t, 150.0, score.LikeDelta(0))
	assert.Equal(t, 150.0, score.LikeDelta(-10))
}

func TestTracker_ApplyLikeAndSkip(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "b", "Kazan", db.GenderFemale, 1000)
	tracker := score.NewTracker(appCtx)

	r, err := tracker.ApplyLike(ctx, "b")
	require.NoError(t, err)
	assert.InDelta(t, 1050, r, 1e-9)

	r, err = tracker.ApplySkip(ctx, "b")
	require.NoError(t, err)
	assert.InDelta(t, 1050-10.5, r, 1e-9)

	p, err := repository.NewProfileRepository(appCtx.DB).Get(ctx, "b")
	require.NoError(t, err)
	assert.InDelta(t, 1039.5, p.Rating, 1e-9)
}

func TestTracker_MissingProfile(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	_, err := score.NewTracker(appCtx).ApplyLike(context.Background(), "ghost")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestTracker_ConcurrentLikesAreNotLost(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "b", "Kazan", db.GenderFemale, 1000)
	tracker := score.NewTracker(appCtx)

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.ApplyLike(ctx, "b")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want := 1000.0
	for i := 0; i < n; i++ {
		want = score.AfterLike(want)
	}
	p, err := repository.NewProfileRepository(appCtx.DB).Get(ctx, "b")
	require.NoError(t, err)
	assert.InDelta(t, want, p.Rating, 1e-9)
}
