package osuapi

import (
	"context"
	"encoding/json"
)

// Requester is the upstream osu! API surface the rest of the service talks
// to. The test harness swaps in a record and replay implementation.
type Requester interface {
	// GetAuthToken exchanges an authorization code for a user token.
	GetAuthToken(ctx context.Context, code string) (OsuAuthToken, error)
	// GetCredentialsToken fetches a client credentials grant token with the
	// public scope.
	GetCredentialsToken(ctx context.Context) (OsuAuthToken, error)
	// GetTokenUser fetches the user the access token belongs to.
	GetTokenUser(ctx context.Context, accessToken string) (UserOsu, error)
	// GetUser fetches a single user by id.
	GetUser(ctx context.Context, accessToken string, userID uint32) (UserOsu, error)
	// GetBeatmap fetches a single difficulty by id.
	GetBeatmap(ctx context.Context, accessToken string, beatmapID uint32) (BeatmapOsu, error)
	// GetBeatmapset fetches a full beatmapset by id.
	GetBeatmapset(ctx context.Context, accessToken string, beatmapsetID uint32) (BeatmapsetOsu, error)
	// SearchUser runs the site-wide user search and returns matching ids.
	SearchUser(ctx context.Context, accessToken, query string) (OsuSearchUserResponse, error)
	// SearchMap runs the beatmapset search with a raw query string.
	SearchMap(ctx context.Context, accessToken, query string) (OsuSearchMapResponse, error)
	// RequestMultiple fetches records from a batched endpoint in chunks,
	// returning the concatenated raw records. The call fails as a whole if
	// any chunk fails.
	RequestMultiple(ctx context.Context, baseURL string, ids []uint32, accessToken string) ([]json.RawMessage, error)
}
