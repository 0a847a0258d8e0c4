package osuapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mapperinfluences/backend/internal/cache"
)

const (
	usersCacheTTL      = 24600 * time.Second
	beatmapsCacheTTL   = 86400 * time.Second
	singleUserCacheTTL = 21600 * time.Second
)

// CachedRequester caches records of one batched endpoint by id. Lookups hit
// the cache first and only the missing ids go upstream; fetched records are
// written back before the merged result is returned.
type CachedRequester[T Identified] struct {
	client  Requester
	baseURL string
	mu      sync.Mutex
	cache   *cache.TTL[uint32, T]
}

// NewCachedRequester creates a cache in front of one batched endpoint.
func NewCachedRequester[T Identified](client Requester, baseURL string, expireIn time.Duration) *CachedRequester[T] {
	return &CachedRequester[T]{
		client:  client,
		baseURL: baseURL,
		cache:   cache.New[uint32, T](expireIn),
	}
}

// GetMultiple returns the records for the given ids, keyed by id. Ids the
// upstream does not return are simply absent from the result.
func (r *CachedRequester[T]) GetMultiple(ctx context.Context, ids []uint32, accessToken string) (map[uint32]T, error) {
	r.mu.Lock()
	looked := r.cache.GetMultiple(ids)
	r.mu.Unlock()

	if len(looked.Misses) == 0 {
		return looked.Hits, nil
	}

	records, err := r.client.RequestMultiple(ctx, r.baseURL, looked.Misses, accessToken)
	if err != nil {
		return nil, err
	}

	fetched := make(map[uint32]T, len(records))
	for _, record := range records {
		var value T
		if err := json.Unmarshal(record, &value); err != nil {
			return nil, err
		}
		fetched[value.GetID()] = value
	}

	r.mu.Lock()
	r.cache.SetMultiple(fetched)
	r.mu.Unlock()

	for id, value := range fetched {
		looked.Hits[id] = value
	}
	return looked.Hits, nil
}

// CombinedRequester layers the user and beatmap caches and combines their
// records into enriched beatmap cards.
type CombinedRequester struct {
	client   Requester
	users    *CachedRequester[OsuMultipleUser]
	beatmaps *CachedRequester[OsuMultipleBeatmap]
}

// NewCombinedRequester wires both caches on top of the real client.
func NewCombinedRequester(client *Client) *CombinedRequester {
	return &CombinedRequester{
		client:   client,
		users:    NewCachedRequester[OsuMultipleUser](client, client.UsersURL(), usersCacheTTL),
		beatmaps: NewCachedRequester[OsuMultipleBeatmap](client, client.BeatmapsURL(), beatmapsCacheTTL),
	}
}

// GetUsersOnly returns compact users keyed by id.
func (r *CombinedRequester) GetUsersOnly(ctx context.Context, ids []uint32, accessToken string) (map[uint32]OsuMultipleUser, error) {
	return r.users.GetMultiple(ctx, ids, accessToken)
}

// GetBeatmapsOnly returns compact beatmaps keyed by id.
func (r *CombinedRequester) GetBeatmapsOnly(ctx context.Context, ids []uint32, accessToken string) (map[uint32]OsuMultipleBeatmap, error) {
	return r.beatmaps.GetMultiple(ctx, ids, accessToken)
}

// GetBeatmapsWithUser fetches beatmaps, then their mappers in one batch, and
// returns enriched cards keyed by beatmap id. Beatmaps whose mapper is
// missing upstream fall back to the beatmapset submitter.
func (r *CombinedRequester) GetBeatmapsWithUser(ctx context.Context, ids []uint32, accessToken string) (map[uint32]OsuBeatmapSmall, error) {
	beatmaps, err := r.beatmaps.GetMultiple(ctx, ids, accessToken)
	if err != nil {
		return nil, err
	}
	if len(beatmaps) == 0 {
		return map[uint32]OsuBeatmapSmall{}, nil
	}

	seen := make(map[uint32]struct{}, len(beatmaps))
	userIDs := make([]uint32, 0, len(beatmaps))
	for _, beatmap := range beatmaps {
		if _, ok := seen[beatmap.UserID]; ok {
			continue
		}
		seen[beatmap.UserID] = struct{}{}
		userIDs = append(userIDs, beatmap.UserID)
	}

	users, err := r.users.GetMultiple(ctx, userIDs, accessToken)
	if err != nil {
		return nil, err
	}

	combined := make(map[uint32]OsuBeatmapSmall, len(beatmaps))
	for id, beatmap := range beatmaps {
		var user *OsuMultipleUser
		if value, ok := users[beatmap.UserID]; ok {
			user = &value
		}
		combined[id] = BeatmapSmallFromMultiple(beatmap, user)
	}
	return combined, nil
}

// UserLookup caches full user records for the single-user fallback path and
// the search backfill.
type UserLookup struct {
	client Requester
	mu     sync.Mutex
	cache  *cache.TTL[uint32, UserOsu]
}

// NewUserLookup creates the single-user cache.
func NewUserLookup(client Requester) *UserLookup {
	return &UserLookup{
		client: client,
		cache:  cache.New[uint32, UserOsu](singleUserCacheTTL),
	}
}

// GetUser returns a full user record, hitting the upstream only on a cache
// miss.
func (l *UserLookup) GetUser(ctx context.Context, accessToken string, userID uint32) (UserOsu, error) {
	l.mu.Lock()
	cached, ok := l.cache.Get(userID)
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	user, err := l.client.GetUser(ctx, accessToken, userID)
	if err != nil {
		return UserOsu{}, err
	}

	l.mu.Lock()
	l.cache.Set(userID, user)
	l.mu.Unlock()
	return user, nil
}
