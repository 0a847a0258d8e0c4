package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRequester satisfies Requester with overridable behavior per call.
type stubRequester struct {
	requestMultiple  func(baseURL string, ids []uint32) ([]json.RawMessage, error)
	getUser          func(userID uint32) (UserOsu, error)
	credentialsToken func() (OsuAuthToken, error)
}

func (s *stubRequester) GetAuthToken(context.Context, string) (OsuAuthToken, error) {
	return OsuAuthToken{}, nil
}

func (s *stubRequester) GetCredentialsToken(context.Context) (OsuAuthToken, error) {
	if s.credentialsToken != nil {
		return s.credentialsToken()
	}
	return OsuAuthToken{}, nil
}

func (s *stubRequester) GetTokenUser(context.Context, string) (UserOsu, error) {
	return UserOsu{}, nil
}

func (s *stubRequester) GetUser(_ context.Context, _ string, userID uint32) (UserOsu, error) {
	if s.getUser != nil {
		return s.getUser(userID)
	}
	return UserOsu{ID: userID}, nil
}

func (s *stubRequester) GetBeatmap(context.Context, string, uint32) (BeatmapOsu, error) {
	return BeatmapOsu{}, nil
}

func (s *stubRequester) GetBeatmapset(context.Context, string, uint32) (BeatmapsetOsu, error) {
	return BeatmapsetOsu{}, nil
}

func (s *stubRequester) SearchUser(context.Context, string, string) (OsuSearchUserResponse, error) {
	return OsuSearchUserResponse{}, nil
}

func (s *stubRequester) SearchMap(context.Context, string, string) (OsuSearchMapResponse, error) {
	return OsuSearchMapResponse{}, nil
}

func (s *stubRequester) RequestMultiple(_ context.Context, baseURL string, ids []uint32, _ string) ([]json.RawMessage, error) {
	return s.requestMultiple(baseURL, ids)
}

func userRecords(ids []uint32) []json.RawMessage {
	records := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		records[i] = json.RawMessage(fmt.Sprintf(`{"id": %d, "username": "user %d"}`, id, id))
	}
	return records
}

func TestCachedRequesterFetchesOnlyMisses(t *testing.T) {
	var upstreamIDs [][]uint32
	stub := &stubRequester{
		requestMultiple: func(_ string, ids []uint32) ([]json.RawMessage, error) {
			upstreamIDs = append(upstreamIDs, ids)
			return userRecords(ids), nil
		},
	}
	cached := NewCachedRequester[OsuMultipleUser](stub, "http://upstream/api/v2/users", time.Minute)

	first, err := cached.GetMultiple(context.Background(), []uint32{1, 2, 3}, "token")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := cached.GetMultiple(context.Background(), []uint32{2, 3, 4}, "token")
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, "user 2", second[2].Username)

	require.Len(t, upstreamIDs, 2)
	assert.Equal(t, []uint32{1, 2, 3}, upstreamIDs[0])
	assert.Equal(t, []uint32{4}, upstreamIDs[1])
}

func TestCachedRequesterSkipsUpstreamOnFullHit(t *testing.T) {
	var calls atomic.Int32
	stub := &stubRequester{
		requestMultiple: func(_ string, ids []uint32) ([]json.RawMessage, error) {
			calls.Add(1)
			return userRecords(ids), nil
		},
	}
	cached := NewCachedRequester[OsuMultipleUser](stub, "http://upstream/api/v2/users", time.Minute)

	_, err := cached.GetMultiple(context.Background(), []uint32{1, 2}, "token")
	require.NoError(t, err)
	_, err = cached.GetMultiple(context.Background(), []uint32{1, 2}, "token")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedRequesterOmitsIDsUpstreamDoesNotKnow(t *testing.T) {
	stub := &stubRequester{
		requestMultiple: func(_ string, ids []uint32) ([]json.RawMessage, error) {
			// upstream silently drops restricted users
			return userRecords(ids[:1]), nil
		},
	}
	cached := NewCachedRequester[OsuMultipleUser](stub, "http://upstream/api/v2/users", time.Minute)

	result, err := cached.GetMultiple(context.Background(), []uint32{1, 2}, "token")
	require.NoError(t, err)
	assert.Len(t, result, 1)
	_, ok := result[2]
	assert.False(t, ok)
}

func TestGetBeatmapsWithUserEnrichesAndFallsBack(t *testing.T) {
	stub := &stubRequester{
		requestMultiple: func(baseURL string, ids []uint32) ([]json.RawMessage, error) {
			switch baseURL {
			case "http://upstream/api/v2/beatmaps":
				return []json.RawMessage{
					json.RawMessage(`{"id": 10, "user_id": 100, "beatmapset": {"title": "alive", "creator": "mapper", "user_id": 100}}`),
					json.RawMessage(`{"id": 11, "user_id": 200, "beatmapset": {"title": "gone", "creator": "restricted mapper", "user_id": 200}}`),
				}, nil
			case "http://upstream/api/v2/users":
				assert.ElementsMatch(t, []uint32{100, 200}, ids)
				return []json.RawMessage{
					json.RawMessage(`{"id": 100, "username": "mapper", "avatar_url": "https://a.ppy.sh/100?1.jpeg"}`),
				}, nil
			}
			t.Fatalf("unexpected base url %s", baseURL)
			return nil, nil
		},
	}

	combined := &CombinedRequester{
		client:   stub,
		users:    NewCachedRequester[OsuMultipleUser](stub, "http://upstream/api/v2/users", time.Minute),
		beatmaps: NewCachedRequester[OsuMultipleBeatmap](stub, "http://upstream/api/v2/beatmaps", time.Minute),
	}

	beatmaps, err := combined.GetBeatmapsWithUser(context.Background(), []uint32{10, 11}, "token")
	require.NoError(t, err)
	require.Len(t, beatmaps, 2)

	assert.Equal(t, "mapper", beatmaps[10].UserName)
	assert.Equal(t, "https://a.ppy.sh/100?1.jpeg", beatmaps[10].UserAvatarURL)

	assert.Equal(t, "restricted mapper", beatmaps[11].UserName)
	assert.Equal(t, "https://a.ppy.sh/200?", beatmaps[11].UserAvatarURL)
}

func TestUserLookupCachesSingleUsers(t *testing.T) {
	var calls atomic.Int32
	stub := &stubRequester{
		getUser: func(userID uint32) (UserOsu, error) {
			calls.Add(1)
			return UserOsu{ID: userID, Username: "peppy"}, nil
		},
	}
	lookup := NewUserLookup(stub)

	first, err := lookup.GetUser(context.Background(), "token", 2)
	require.NoError(t, err)
	assert.Equal(t, "peppy", first.Username)

	_, err = lookup.GetUser(context.Background(), "token", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
