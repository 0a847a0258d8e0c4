// Command update runs one refresh pass over the stored users and exits. It
// covers deploys that schedule the refresh externally instead of enabling
// DAILY_UPDATE in the server process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mapperinfluences/backend/internal/config"
	"github.com/mapperinfluences/backend/internal/dailyupdate"
	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"go.uber.org/zap"
)

func main() {
	pace := flag.Duration("pace", 15*time.Second, "delay between upstream fetches")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "update.log"); err != nil {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := osuapi.NewClient(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	credentials := osuapi.NewCredentialsGrantClient(client)

	users, err := db.GetUsersToUpdate()
	if err != nil {
		logger.Log.Fatal("Failed to list users to update", zap.Error(err))
	}
	dailyupdate.UpdateOnce(ctx, credentials, db, users, *pace)
}
