// Package testutil wires an isolated AppContext for service tests:
// in-memory SQLite plus miniredis, logs discarded.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	applog "github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/repository"
)

// NewAppContext spins up an in-memory SQLite DB, applies migrations, starts
// a miniredis and wires both into an AppContext.
//
// Each test gets its own isolated DB + Redis. The connection pool is capped at
// one connection so concurrent tests serialize on SQLite instead of failing
// with table locks.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc:                db.Now,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.Candidates.PerSide = 3
	cfg.Candidates.DailyQuota = 3
	cfg.Redis.MatchTTL = 10 * time.Minute
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.Issuer = "test"
	cfg.Auth.AccessExpiry = time.Hour
	cfg.Auth.Cookie = "mir"

	return app.New(cfg, gdb, cache.NewWithClient(rdb, cfg.Redis.MatchTTL), applog.Discard()), mr
}

// Profile inserts a visible profile.
func Profile(t *testing.T, appCtx *app.AppContext, id, city, gender string, rating float64) db.Profile {
	t.Helper()
	p := db.Profile{UserID: id, FirstName: "user-" + id, City: city, Gender: gender, Visible: true, Rating: rating}
	require.NoError(t, appCtx.DB.Create(&p).Error)
	return p
}

// Like stores a preference row directly, bypassing scoring and match checks.
func Like(t *testing.T, appCtx *app.AppContext, liker, target string, liked bool) {
	t.Helper()
	_, err := repository.NewPreferenceRepository(appCtx.DB).Upsert(context.Background(), liker, target, liked)
	require.NoError(t, err)
}
