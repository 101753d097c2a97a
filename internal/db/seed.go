package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []string{"Moscow", "Kazan"}

var seedNames = []string{
	"Alex", "Sasha", "Nikita", "Zhenya", "Valya", "Misha", "Dasha", "Yura", "Lena", "Kolya",
}

// SeedTestData resets the database and populates it with demo users.
//
// Behavior:
//  1. Clears messages, matches, preferences, blocks, profiles and users.
//  2. Creates `count` users (alternating gender, two cities) with hashed passwords
//     and visible profiles with ratings around the default.
//  3. Generates likes/skips (~70% likes); every 3rd like is reciprocated and
//     the resulting match row is created.
//
// Returns the seeded users so callers can mint tokens for them.
func SeedTestData(db *gorm.DB, count int) ([]User, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "matches", "preferences", "blocks", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, count)
	profiles := make([]Profile, 0, count)
	for i := 0; i < count; i++ {
		gender := GenderMale
		if i%2 == 1 {
			gender = GenderFemale
		}
		u := User{
			ID:           NewID(),
			Email:        fmt.Sprintf("user%d@example.com", i+1),
			PasswordHash: string(hash),
			Active:       true,
		}
		users = append(users, u)
		profiles = append(profiles, Profile{
			UserID:    u.ID,
			FirstName: seedNames[i%len(seedNames)],
			City:      seedCities[(i/2)%len(seedCities)],
			Gender:    gender,
			Visible:   true,
			Rating:    DefaultRating + float64(r.Intn(400)-200),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	if err := db.Create(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to seed profiles: %w", err)
	}

	// --- Seed preferences ---
	counter := 0
	seen := make(map[string]bool)
	for _, liker := range profiles {
		for j := 0; j < count/2; j++ {
			target := profiles[r.Intn(len(profiles))]
			if target.Gender == liker.Gender || seen[PairKey(liker.UserID, target.UserID)] {
				continue
			}
			seen[PairKey(liker.UserID, target.UserID)] = true

			liked := r.Intn(100) < 70
			if err := upsertPreference(db, liker.UserID, target.UserID, liked); err != nil {
				return nil, err
			}
			if liked && counter%3 == 0 {
				if err := upsertPreference(db, target.UserID, liker.UserID, true); err != nil {
					return nil, err
				}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).
					Create(NewMatch(liker.UserID, target.UserID)).Error; err != nil {
					return nil, fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}

	return users, nil
}

func upsertPreference(db *gorm.DB, liker, target string, liked bool) error {
	p := Preference{LikerID: liker, TargetID: target, Liked: liked}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "liker_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to seed preference: %w", err)
	}
	return nil
}
