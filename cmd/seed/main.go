package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/logger"
)

func main() {
	count := flag.Int("count", 20, "number of users to create")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	users, err := db.SeedTestData(database, *count)
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	provider := auth.NewProvider(cfg)
	for _, u := range users {
		token, err := provider.Issue(u.ID)
		if err != nil {
			log.Error("failed to issue token", "user", u.ID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\t%s\n", u.Email, u.ID, token)
	}
	log.Info("seeding completed", "users", len(users))
}
