package blocks_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/blocks"
	"github.com/oggyb/muzz-match/internal/service/candidates"
	"github.com/oggyb/muzz-match/internal/service/matches"
	"github.com/oggyb/muzz-match/internal/testutil"
)

func TestBlock_RemovesMatch(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "a", "Kazan", db.GenderMale, 1000)
	testutil.Profile(t, appCtx, "b", "Kazan", db.GenderFemale, 1000)
	testutil.Like(t, appCtx, "a", "b", true)
	testutil.Like(t, appCtx, "b", "a", true)

	coord := matches.NewCoordinator(appCtx)
	m, err := coord.TryCreateMatch(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, m)

	svc := blocks.NewService(appCtx, coord)
	require.NoError(t, svc.Block(ctx, "b", "a"))
	require.NoError(t, svc.Block(ctx, "b", "a"), "second block is a no-op")

	found, err := coord.Lookup(ctx, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestBlock_HidesCandidatesBothWays(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "x", "Kazan", db.GenderMale, 1000)
	testutil.Profile(t, appCtx, "z", "Kazan", db.GenderMale, 1000)
	testutil.Profile(t, appCtx, "y", "Kazan", db.GenderFemale, 1000)
	testutil.Profile(t, appCtx, "w", "Kazan", db.GenderFemale, 1000)

	require.NoError(t, blocks.NewService(appCtx, nil).Block(ctx, "y", "x"))
	sel := candidates.NewSelector(appCtx)

	page, err := sel.ListCandidates(ctx, "x", 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "w", page[0].UserID)

	page, err = sel.ListCandidates(ctx, "y", 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "z", page[0].UserID)
}

func TestBlock_Errors(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "a", "Kazan", db.GenderMale, 1000)
	svc := blocks.NewService(appCtx, nil)

	assert.ErrorIs(t, svc.Block(ctx, "a", "a"), svcErr.ErrSelfAction)
	assert.ErrorIs(t, svc.Block(ctx, "a", "ghost"), svcErr.ErrNotFound)
	assert.ErrorIs(t, svc.Unblock(ctx, "a", "ghost"), svcErr.ErrNotFound)
}

func TestBlocksHTTP(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	testutil.Profile(t, appCtx, "a", "Kazan", db.GenderMale, 1000)
	testutil.Profile(t, appCtx, "b", "Kazan", db.GenderFemale, 1000)
	api := testutil.NewAPI(t, appCtx, blocks.NewRegistrar(blocks.NewService(appCtx, matches.NewCoordinator(appCtx))))

	w := api.Do(http.MethodPost, "/blocks", "a", map[string]any{"blockedUserId": "b"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, api.Do(http.MethodPost, "/blocks", "a", map[string]any{"blockedUserId": "a"}).Code)
	assert.Equal(t, http.StatusBadRequest, api.Do(http.MethodPost, "/blocks", "a", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, api.Do(http.MethodPost, "/blocks", "a", map[string]any{"blockedUserId": "ghost"}).Code)

	assert.Equal(t, http.StatusNoContent, api.Do(http.MethodDelete, "/blocks/b", "a", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.Do(http.MethodDelete, "/blocks/b", "a", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.Do(http.MethodDelete, "/blocks/b", "", nil).Code)
}
