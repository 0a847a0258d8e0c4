// Package dailyupdate refreshes stored user profiles against the upstream
// API once a day, paced so the refresh never bursts the upstream quota.
package dailyupdate

import (
	"context"
	"time"

	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/retry"
	"go.uber.org/zap"
)

const (
	updateInterval    = 24 * time.Hour
	defaultPace       = 15 * time.Second
	listRetryCooldown = 60
)

// UserSource fetches a user's current upstream profile.
type UserSource interface {
	GetUser(ctx context.Context, userID uint32) (osuapi.UserOsu, error)
}

// Database is the slice of the database facade the updater needs.
type Database interface {
	GetUsersToUpdate() ([]uint32, error)
	UpsertUser(user osuapi.UserOsu, authenticated bool) error
}

// Routine runs the daily refresh for the process lifetime. It sleeps
// initialDelay first so a crash-looping deploy does not hammer upstream.
func Routine(ctx context.Context, source UserSource, db Database, initialDelay time.Duration) {
	if !sleep(ctx, initialDelay) {
		return
	}

	for {
		users, err := retry.UntilSuccess(ctx, listRetryCooldown, "Failed to list users to update", db.GetUsersToUpdate)
		if err != nil {
			return
		}
		UpdateOnce(ctx, source, db, users, defaultPace)

		if !sleep(ctx, updateInterval) {
			return
		}
	}
}

// UpdateOnce refreshes the given users one by one, one fetch per pace tick.
// Individual failures are logged and skipped.
func UpdateOnce(ctx context.Context, source UserSource, db Database, users []uint32, pace time.Duration) {
	if len(users) == 0 {
		return
	}
	logger.Log.Info("Starting user refresh", zap.Int("users", len(users)))

	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	updated := 0
	for _, userID := range users {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		user, err := source.GetUser(ctx, userID)
		if err != nil {
			logger.Log.Error("Failed to fetch user for refresh", zap.Uint32("user_id", userID), zap.Error(err))
			continue
		}
		if err := db.UpsertUser(user, false); err != nil {
			logger.Log.Error("Failed to upsert refreshed user", zap.Uint32("user_id", userID), zap.Error(err))
			continue
		}
		updated++
	}
	logger.Log.Info("Finished user refresh", zap.Int("updated", updated), zap.Int("users", len(users)))
}

// sleep waits for d, reporting false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
