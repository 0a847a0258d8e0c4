// Package osuapi talks to the osu! v2 API: token grants, user and beatmap
// lookups, search, and the batched endpoints behind the per-record caches.
package osuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	defaultBaseURL = "https://osu.ppy.sh"
	tokenURL       = "https://osu.ppy.sh/oauth/token"

	// maxConcurrentRequests bounds in-flight upstream calls across the whole
	// process; the permit is held for the full round-trip.
	maxConcurrentRequests = 10

	// multipleChunkSize is the id limit of the batched endpoints.
	multipleChunkSize = 50
)

// Client is the real osu! API requester.
type Client struct {
	httpClient   *http.Client
	semaphore    *semaphore.Weighted
	clientID     string
	clientSecret string
	redirectURI  string
	baseURL      string
	tokenURL     string
}

// NewClient creates a requester with the given OAuth application settings.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		semaphore:    semaphore.NewWeighted(maxConcurrentRequests),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		baseURL:      defaultBaseURL,
		tokenURL:     tokenURL,
	}
}

// WithBaseURL points the client at a different upstream. Used by tests to
// target a local server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	c.tokenURL = baseURL + "/oauth/token"
	return c
}

// BaseURL returns the upstream root, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UsersURL returns the batched users endpoint for RequestMultiple.
func (c *Client) UsersURL() string {
	return c.baseURL + "/api/v2/users"
}

// BeatmapsURL returns the batched beatmaps endpoint for RequestMultiple.
func (c *Client) BeatmapsURL() string {
	return c.baseURL + "/api/v2/beatmaps"
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.semaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.semaphore.Release(1)

	endpoint := endpointLabel(req.URL.Path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.Get().UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.Get().UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("osu api: %s %s returned %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, body)
	}
	return body, nil
}

// endpointLabel collapses id-bearing paths into one metric series, so
// /api/v2/users/123 counts under /api/v2/users.
func endpointLabel(path string) string {
	trimmed := strings.TrimRight(path, "0123456789")
	return strings.TrimSuffix(trimmed, "/")
}

func (c *Client) getJSON(ctx context.Context, rawURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) postToken(ctx context.Context, payload authRequest) (OsuAuthToken, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OsuAuthToken{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return OsuAuthToken{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(ctx, req)
	if err != nil {
		return OsuAuthToken{}, err
	}

	var token OsuAuthToken
	if err := json.Unmarshal(respBody, &token); err != nil {
		return OsuAuthToken{}, err
	}
	return token, nil
}

func (c *Client) GetAuthToken(ctx context.Context, code string) (OsuAuthToken, error) {
	return c.postToken(ctx, authRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		GrantType:    "authorization_code",
		RedirectURI:  c.redirectURI,
		Code:         &code,
	})
}

func (c *Client) GetCredentialsToken(ctx context.Context) (OsuAuthToken, error) {
	scope := "public"
	return c.postToken(ctx, authRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		GrantType:    "client_credentials",
		RedirectURI:  c.redirectURI,
		Scope:        &scope,
	})
}

func (c *Client) GetTokenUser(ctx context.Context, accessToken string) (UserOsu, error) {
	var user UserOsu
	err := c.getJSON(ctx, c.baseURL+"/api/v2/me", accessToken, &user)
	return user, err
}

func (c *Client) GetUser(ctx context.Context, accessToken string, userID uint32) (UserOsu, error) {
	var user UserOsu
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/v2/users/%d", c.baseURL, userID), accessToken, &user)
	return user, err
}

func (c *Client) GetBeatmap(ctx context.Context, accessToken string, beatmapID uint32) (BeatmapOsu, error) {
	var beatmap BeatmapOsu
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/v2/beatmaps/%d", c.baseURL, beatmapID), accessToken, &beatmap)
	return beatmap, err
}

func (c *Client) GetBeatmapset(ctx context.Context, accessToken string, beatmapsetID uint32) (BeatmapsetOsu, error) {
	var beatmapset BeatmapsetOsu
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/v2/beatmapsets/%d", c.baseURL, beatmapsetID), accessToken, &beatmapset)
	return beatmapset, err
}

func (c *Client) SearchUser(ctx context.Context, accessToken, query string) (OsuSearchUserResponse, error) {
	var response OsuSearchUserResponse
	searchURL := fmt.Sprintf("%s/api/v2/search/?mode=user&query=%s", c.baseURL, url.QueryEscape(query))
	err := c.getJSON(ctx, searchURL, accessToken, &response)
	return response, err
}

func (c *Client) SearchMap(ctx context.Context, accessToken, query string) (OsuSearchMapResponse, error) {
	var response OsuSearchMapResponse
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/v2/beatmapsets/search?%s", c.baseURL, query), accessToken, &response)
	return response, err
}

// RequestMultiple fans out over chunks of at most 50 ids and concatenates
// the raw records. The batched endpoints wrap their array in a single-key
// object, which is stripped per chunk.
func (c *Client) RequestMultiple(ctx context.Context, baseURL string, ids []uint32, accessToken string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	chunks := make([][]uint32, 0, (len(ids)+multipleChunkSize-1)/multipleChunkSize)
	for start := 0; start < len(ids); start += multipleChunkSize {
		end := min(start+multipleChunkSize, len(ids))
		chunks = append(chunks, ids[start:end])
	}

	results := make([][]json.RawMessage, len(chunks))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, chunk := range chunks {
		group.Go(func() error {
			query := url.Values{}
			for _, id := range chunk {
				query.Add("ids[]", strconv.FormatUint(uint64(id), 10))
			}

			var wrapped json.RawMessage
			if err := c.getJSON(groupCtx, baseURL+"?"+query.Encode(), accessToken, &wrapped); err != nil {
				return err
			}
			records, err := stripOuterLayer(wrapped)
			if err != nil {
				return err
			}
			results[index] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var records []json.RawMessage
	for _, chunk := range results {
		records = append(records, chunk...)
	}
	return records, nil
}

// stripOuterLayer unwraps {"users": [...]} style responses into the inner
// array.
func stripOuterLayer(wrapped json.RawMessage) ([]json.RawMessage, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(wrapped, &outer); err != nil {
		return nil, apperror.MissingLayerJSON()
	}

	for _, inner := range outer {
		var records []json.RawMessage
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, apperror.MissingLayerJSON()
		}
		return records, nil
	}
	return nil, apperror.MissingLayerJSON()
}
