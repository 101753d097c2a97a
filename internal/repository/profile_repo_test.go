package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/repository"
)

func TestProfileGetVisible(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	mustProfile(t, database, "shown", "Kazan", db.GenderMale, 1000)
	hidden := db.Profile{UserID: "hidden", FirstName: "h", City: "Kazan", Gender: db.GenderMale, Visible: false}
	require.NoError(t, repo.Create(ctx, &hidden))

	_, err := repo.GetVisible(ctx, "shown")
	assert.NoError(t, err)
	_, err = repo.GetVisible(ctx, "hidden")
	assert.Error(t, err)

	p, err := repo.Get(ctx, "hidden")
	require.NoError(t, err)
	assert.Equal(t, db.DefaultRating, p.Rating)
}

func TestClaimQuota_StopsAtLimit(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	mustProfile(t, database, "me", "Kazan", db.GenderMale, 1000)

	for i := 0; i < 3; i++ {
		ok, err := repo.ClaimQuota(ctx, "me", 3)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.ClaimQuota(ctx, "me", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.ResetQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ResetQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ok, _ = repo.ClaimQuota(ctx, "me", 3)
	assert.True(t, ok)
}

func TestClaimQuota_Concurrent(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewProfileRepository(database)
	mustProfile(t, database, "me", "Kazan", db.GenderMale, 1000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ClaimQuota(ctx, "me", 3)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, granted)
}

func TestCompareAndSetRating(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	mustProfile(t, database, "me", "Kazan", db.GenderMale, 1000)

	ok, err := repo.CompareAndSetRating(ctx, "me", 1000, 1050)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale read loses
	ok, err = repo.CompareAndSetRating(ctx, "me", 1000, 1100)
	require.NoError(t, err)
	assert.False(t, ok)

	p, _ := repo.Get(ctx, "me")
	assert.Equal(t, 1050.0, p.Rating)
}

func TestCandidatePartitions(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	prefs := repository.NewPreferenceRepository(database)
	blocks := repository.NewBlockRepository(database)

	me := mustProfile(t, database, "me", "Kazan", db.GenderMale, 1000)
	mustProfile(t, database, "f1100", "Kazan", db.GenderFemale, 1100)
	mustProfile(t, database, "f1000", "Kazan", db.GenderFemale, 1000)
	mustProfile(t, database, "f1300", "Kazan", db.GenderFemale, 1300)
	mustProfile(t, database, "f900", "Kazan", db.GenderFemale, 900)
	mustProfile(t, database, "f500", "Kazan", db.GenderFemale, 500)
	// excluded: other city, same gender, invisible, decided, blocked both ways
	mustProfile(t, database, "moscow", "Moscow", db.GenderFemale, 1000)
	mustProfile(t, database, "male", "Kazan", db.GenderMale, 1000)
	require.NoError(t, database.Create(&db.Profile{UserID: "ghost", FirstName: "g", City: "Kazan", Gender: db.GenderFemale}).Error)
	mustProfile(t, database, "skipped", "Kazan", db.GenderFemale, 1000)
	_, _ = prefs.Upsert(ctx, "me", "skipped", false)
	mustProfile(t, database, "blockedByMe", "Kazan", db.GenderFemale, 1000)
	_, _ = blocks.Create(ctx, "me", "blockedByMe")
	mustProfile(t, database, "blockedMe", "Kazan", db.GenderFemale, 1000)
	_, _ = blocks.Create(ctx, "blockedMe", "me")
	// someone liking me does not hide them
	mustProfile(t, database, "admirer", "Kazan", db.GenderFemale, 2000)
	_, _ = prefs.Upsert(ctx, "admirer", "me", true)

	above, err := repo.CandidatesAbove(ctx, &me, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1000", "f1100", "f1300", "admirer"}, ids(above))

	below, err := repo.CandidatesBelow(ctx, &me, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"f900", "f500"}, ids(below))

	next, err := repo.CandidatesAbove(ctx, &me, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1300", "admirer"}, ids(next))
}

func TestListByIDs(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	mustProfile(t, database, "a", "Kazan", db.GenderMale, 1000)
	mustProfile(t, database, "b", "Kazan", db.GenderFemale, 1000)

	got, err := repo.ListByIDs(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got["b"].UserID)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func ids(profiles []db.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.UserID)
	}
	return out
}
