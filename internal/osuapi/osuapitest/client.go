// Package osuapitest provides a record and replay requester for tests that
// would otherwise hit the live osu! API. Each test label owns one gzip
// compressed JSON cache file under testdata; when the file exists responses
// are replayed from it, otherwise the wrapped requester is called and the
// responses are recorded for the next run.
package osuapitest

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mapperinfluences/backend/internal/osuapi"
)

// Client is a Requester backed by a response cache file.
type Client struct {
	inner     osuapi.Requester
	path      string
	recording bool

	mu        sync.Mutex
	responses map[string]json.RawMessage
}

// New opens the cache for the given label. The wrapped requester may be nil
// when the cache file already exists.
func New(inner osuapi.Requester, label string) (*Client, error) {
	path := filepath.Join("testdata", label+".json.gz")

	c := &Client{
		inner:     inner,
		path:      path,
		responses: make(map[string]json.RawMessage),
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		c.recording = true
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := json.NewDecoder(reader).Decode(&c.responses); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the recorded responses back to the cache file. A replaying
// client saves nothing.
func (c *Client) Save() error {
	if !c.recording {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := gzip.NewWriter(file)
	if err := json.NewEncoder(writer).Encode(c.responses); err != nil {
		return err
	}
	return writer.Close()
}

func roundTrip[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	c.mu.Lock()
	cached, ok := c.responses[key]
	c.mu.Unlock()

	var value T
	if ok {
		err := json.Unmarshal(cached, &value)
		return value, err
	}
	if !c.recording {
		return value, fmt.Errorf("osuapitest: no recorded response for %q in %s", key, c.path)
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}
	recorded, err := json.Marshal(value)
	if err != nil {
		return value, err
	}

	c.mu.Lock()
	c.responses[key] = recorded
	c.mu.Unlock()
	return value, nil
}

func (c *Client) GetAuthToken(ctx context.Context, code string) (osuapi.OsuAuthToken, error) {
	return roundTrip(c, "auth_token:"+code, func() (osuapi.OsuAuthToken, error) {
		return c.inner.GetAuthToken(ctx, code)
	})
}

func (c *Client) GetCredentialsToken(ctx context.Context) (osuapi.OsuAuthToken, error) {
	return roundTrip(c, "credentials_token", func() (osuapi.OsuAuthToken, error) {
		return c.inner.GetCredentialsToken(ctx)
	})
}

func (c *Client) GetTokenUser(ctx context.Context, accessToken string) (osuapi.UserOsu, error) {
	return roundTrip(c, "token_user", func() (osuapi.UserOsu, error) {
		return c.inner.GetTokenUser(ctx, accessToken)
	})
}

func (c *Client) GetUser(ctx context.Context, accessToken string, userID uint32) (osuapi.UserOsu, error) {
	return roundTrip(c, fmt.Sprintf("user:%d", userID), func() (osuapi.UserOsu, error) {
		return c.inner.GetUser(ctx, accessToken, userID)
	})
}

func (c *Client) GetBeatmap(ctx context.Context, accessToken string, beatmapID uint32) (osuapi.BeatmapOsu, error) {
	return roundTrip(c, fmt.Sprintf("beatmap:%d", beatmapID), func() (osuapi.BeatmapOsu, error) {
		return c.inner.GetBeatmap(ctx, accessToken, beatmapID)
	})
}

func (c *Client) GetBeatmapset(ctx context.Context, accessToken string, beatmapsetID uint32) (osuapi.BeatmapsetOsu, error) {
	return roundTrip(c, fmt.Sprintf("beatmapset:%d", beatmapsetID), func() (osuapi.BeatmapsetOsu, error) {
		return c.inner.GetBeatmapset(ctx, accessToken, beatmapsetID)
	})
}

func (c *Client) SearchUser(ctx context.Context, accessToken, query string) (osuapi.OsuSearchUserResponse, error) {
	return roundTrip(c, "search_user:"+query, func() (osuapi.OsuSearchUserResponse, error) {
		return c.inner.SearchUser(ctx, accessToken, query)
	})
}

func (c *Client) SearchMap(ctx context.Context, accessToken, query string) (osuapi.OsuSearchMapResponse, error) {
	return roundTrip(c, "search_map:"+query, func() (osuapi.OsuSearchMapResponse, error) {
		return c.inner.SearchMap(ctx, accessToken, query)
	})
}

// RequestMultiple keys the cache on the sorted id set so call order inside a
// test does not matter.
func (c *Client) RequestMultiple(ctx context.Context, baseURL string, ids []uint32, accessToken string) ([]json.RawMessage, error) {
	sorted := make([]uint32, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	key := fmt.Sprintf("multiple:%s:%s", baseURL, strings.Join(parts, ","))

	return roundTrip(c, key, func() ([]json.RawMessage, error) {
		return c.inner.RequestMultiple(ctx, baseURL, sorted, accessToken)
	})
}
