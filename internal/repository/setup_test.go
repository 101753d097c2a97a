package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/db"
)

// setupTestDB opens a private in-memory DB per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                db.Now,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	return database
}

func mustProfile(t *testing.T, database *gorm.DB, id, city, gender string, rating float64) db.Profile {
	t.Helper()
	p := db.Profile{UserID: id, FirstName: id, City: city, Gender: gender, Visible: true, Rating: rating}
	require.NoError(t, database.WithContext(context.Background()).Create(&p).Error)
	return p
}
