package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/config"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                Now,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return gdb
}

func TestPairHelpers(t *testing.T) {
	lo, hi := SortPair("b", "a")
	assert.Equal(t, "a", lo)
	assert.Equal(t, "b", hi)
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))

	m := NewMatch("zed", "amy")
	assert.Equal(t, "amy", m.UserA)
	assert.Equal(t, "zed", m.UserB)
	assert.Equal(t, "amy:zed", m.PairKey)
	assert.NotEmpty(t, m.ID)
	assert.True(t, m.Involves("zed"))
	assert.False(t, m.Involves("bob"))
	assert.Equal(t, "amy", m.Counterpart("zed"))
}

func TestOpenDialector_UnknownDriver(t *testing.T) {
	_, err := openDialector("oracle", "x")
	assert.Error(t, err)
}

func TestNewDB_Sqlite(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = "file:newdb_test?mode=memory&cache=shared"

	gdb, err := NewDB(cfg)
	require.NoError(t, err)
	assert.True(t, gdb.Migrator().HasTable(&Match{}))
	assert.True(t, gdb.Migrator().HasTable(&Message{}))
	assert.Zero(t, gdb.NowFunc().Nanosecond()%int(time.Millisecond))
}

func TestNow_MillisecondPrecision(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
}

func TestMatchPairKeyIsUnique(t *testing.T) {
	gdb := openTestDB(t)

	require.NoError(t, gdb.Create(NewMatch("a", "b")).Error)
	err := gdb.Create(NewMatch("b", "a")).Error
	assert.Error(t, err)
}

func TestSeedTestData(t *testing.T) {
	gdb := openTestDB(t)

	users, err := SeedTestData(gdb, 10)
	require.NoError(t, err)
	assert.Len(t, users, 10)

	var profiles int64
	require.NoError(t, gdb.Model(&Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(10), profiles)

	// every seeded match is backed by two likes
	var matches []Match
	require.NoError(t, gdb.Find(&matches).Error)
	for _, m := range matches {
		var n int64
		gdb.Model(&Preference{}).
			Where("liked = ? AND ((liker_id = ? AND target_id = ?) OR (liker_id = ? AND target_id = ?))",
				true, m.UserA, m.UserB, m.UserB, m.UserA).
			Count(&n)
		assert.Equal(t, int64(2), n)
	}

	// reseeding starts fresh
	_, err = SeedTestData(gdb, 4)
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(4), profiles)
}
