package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mapperinfluences/backend/internal/activity"
	"github.com/mapperinfluences/backend/internal/auth"
	"github.com/mapperinfluences/backend/internal/config"
	"github.com/mapperinfluences/backend/internal/dailyupdate"
	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/handlers"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// dailyUpdateDelay keeps the refresh loop out of the startup burst.
const dailyUpdateDelay = time.Minute

func main() {
	// deploys configure the process environment directly, the file is a
	// development convenience
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
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

	osuClient := osuapi.NewClient(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	combined := osuapi.NewCombinedRequester(osuClient)
	users := osuapi.NewUserLookup(osuClient)
	credentials := osuapi.NewCredentialsGrantClient(osuClient)

	tracker, err := activity.NewTracker(ctx, db, combined, credentials, activity.QueueSize)
	if err != nil {
		logger.Log.Fatal("Failed to start activity tracker", zap.Error(err))
	}

	authService := auth.NewService(cfg.JWTSecretKey)
	h := handlers.New(db, osuClient, combined, users, credentials, tracker, authService, db, cfg)

	if cfg.DailyUpdate {
		go dailyupdate.Routine(ctx, credentials, db, dailyUpdateDelay)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.Router(),
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
}
