// Command seed fills a development SurrealDB instance with fake mappers and
// influence edges. Never point it at production.
package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/mapperinfluences/backend/internal/config"
	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/seed"
	"go.uber.org/zap"
)

func main() {
	userCount := flag.Int("users", 50, "how many fake users to create")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "seed.log"); err != nil {
		os.Exit(1)
	}
	defer logger.Close()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg.SurrealURL, cfg.SurrealUser, cfg.SurrealPass)
	if err != nil {
		logger.Log.Fatal("Failed to connect to SurrealDB", zap.Error(err))
	}
	defer db.Close()

	if err := seed.NewSeeder(db, *userCount).Run(); err != nil {
		logger.Log.Fatal("Seeding failed", zap.Error(err))
	}
	logger.Log.Info("Seeding finished")
}
