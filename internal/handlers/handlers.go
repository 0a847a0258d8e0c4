// Package handlers implements the HTTP surface: auth, users, influences,
// search, the activity feed and the public aggregate endpoints.
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/mapperinfluences/backend/internal/activity"
	"github.com/mapperinfluences/backend/internal/auth"
	"github.com/mapperinfluences/backend/internal/cache"
	"github.com/mapperinfluences/backend/internal/config"
	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/graph"
	"github.com/mapperinfluences/backend/internal/leaderboard"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"go.uber.org/zap"
)

const (
	userSearchCacheTTL = 600 * time.Second
	mapSearchCacheTTL  = 300 * time.Second
)

// Database is the slice of the database facade the handlers call.
type Database interface {
	UpsertUser(user osuapi.UserOsu, authenticated bool) error
	SetAuthenticated(userID uint32) error
	UpdateBio(userID uint32, bio string) error
	AddBeatmapToUser(userID, beatmapID uint32) error
	RemoveBeatmapFromUser(userID, beatmapID uint32) error
	SetInfluenceOrder(userID uint32, order []uint32) error
	GetUserDetails(userID uint32) (database.UserRecord, error)
	GetMultipleUserDetails(userIDs []uint32) ([]database.UserRecord, error)
	SetActivityPreferences(userID uint32, preferences models.ActivityPreferences) error
	GetActivityPreferences(userID uint32) (models.ActivityPreferences, error)

	AddInfluenceRelation(userID, targetUserID uint32, options database.InfluenceOptions) (models.Influence, error)
	RemoveInfluenceRelation(userID, targetUserID uint32) (models.Influence, error)
	AddBeatmapsToInfluence(userID, targetUserID uint32, beatmapIDs []uint32) (models.Influence, error)
	RemoveBeatmapFromInfluence(userID, targetUserID, beatmapID uint32) (models.Influence, error)
	UpdateInfluenceType(userID, targetUserID uint32, influenceType uint8) (models.Influence, error)
	UpdateInfluenceDescription(userID, targetUserID uint32, description string) (models.Influence, error)
	GetInfluences(userID, start, limit uint32) ([]models.Influence, error)
	GetMentions(userID, start, limit uint32) ([]models.Influence, error)

	AddActivity(userID uint32, event models.EventType, details database.ActivityDetails) error
	AddLoginActivity(userID uint32) error

	UserLeaderboard(country *string, rankedOnly bool, limit, start uint32) ([]models.LeaderboardUser, error)
	BeatmapLeaderboard(rankedOnly bool, limit, start uint32) ([]models.LeaderboardBeatmap, error)
}

// CombinedRequester is the batched, cached upstream surface.
type CombinedRequester interface {
	GetUsersOnly(ctx context.Context, ids []uint32, accessToken string) (map[uint32]osuapi.OsuMultipleUser, error)
	GetBeatmapsOnly(ctx context.Context, ids []uint32, accessToken string) (map[uint32]osuapi.OsuMultipleBeatmap, error)
	GetBeatmapsWithUser(ctx context.Context, ids []uint32, accessToken string) (map[uint32]osuapi.OsuBeatmapSmall, error)
}

// UserLookup is the cached single-user upstream fallback.
type UserLookup interface {
	GetUser(ctx context.Context, accessToken string, userID uint32) (osuapi.UserOsu, error)
}

// Credentials hands out the system-level token and user lookups made with it.
type Credentials interface {
	GetAccessToken(ctx context.Context) (string, error)
	GetUser(ctx context.Context, userID uint32) (osuapi.UserOsu, error)
}

// Handlers carries the shared state of every route.
type Handlers struct {
	db          Database
	requester   osuapi.Requester
	combined    CombinedRequester
	users       UserLookup
	credentials Credentials
	tracker     *activity.Tracker
	auth        *auth.Service
	cfg         *config.Config

	userLeaderboards    *leaderboard.Cache[leaderboard.UserKey, models.LeaderboardUser]
	beatmapLeaderboards *leaderboard.Cache[bool, models.LeaderboardBeatmap]
	graph               *graph.Cache

	userSearch *searchCache[[]models.UserSmall]
	mapSearch  *searchCache[[]osuapi.BeatmapsetSmall]
}

// New wires the handler state.
func New(
	db Database,
	requester osuapi.Requester,
	combined CombinedRequester,
	users UserLookup,
	credentials Credentials,
	tracker *activity.Tracker,
	authService *auth.Service,
	graphSource graph.Source,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		db:          db,
		requester:   requester,
		combined:    combined,
		users:       users,
		credentials: credentials,
		tracker:     tracker,
		auth:        authService,
		cfg:         cfg,

		userLeaderboards:    leaderboard.NewCache[leaderboard.UserKey, models.LeaderboardUser](leaderboard.UserWindow),
		beatmapLeaderboards: leaderboard.NewCache[bool, models.LeaderboardBeatmap](leaderboard.BeatmapWindow),
		graph:               graph.NewCache(graphSource),

		userSearch: newSearchCache[[]models.UserSmall](userSearchCacheTTL),
		mapSearch:  newSearchCache[[]osuapi.BeatmapsetSmall](mapSearchCacheTTL),
	}
}

// recordActivity persists a feed event if the actor's preferences allow it.
// Failures are logged, the triggering request already succeeded.
func (h *Handlers) recordActivity(userID uint32, event models.EventType, details database.ActivityDetails) {
	preferences, err := h.db.GetActivityPreferences(userID)
	if err != nil {
		logger.Log.Error("Failed to read activity preferences",
			logger.WithUserID(userID), zap.Error(err))
		return
	}
	if !preferences.Allows(event) {
		return
	}
	if err := h.db.AddActivity(userID, event, details); err != nil {
		logger.Log.Error("Failed to record activity",
			logger.WithUserID(userID), zap.String("event", string(event)), zap.Error(err))
	}
}

// searchCache memoizes search responses by query string.
type searchCache[V any] struct {
	mu      sync.Mutex
	entries *cache.TTL[string, V]
}

func newSearchCache[V any](expireIn time.Duration) *searchCache[V] {
	return &searchCache[V]{entries: cache.New[string, V](expireIn)}
}

func (c *searchCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

func (c *searchCache[V]) set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Set(key, value)
}
