package osuapi

import (
	"context"
	"sync"
	"time"

	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/retry"
	"go.uber.org/zap"
)

// refreshMargin is how long before expiry the grant token is renewed.
const refreshMargin = 120 * time.Second

// CredentialsGrantClient maintains a client credentials grant token in the
// background. The refresh loop starts lazily on the first token request, so
// processes that never need system-level access never hold a grant.
type CredentialsGrantClient struct {
	client Requester

	mu    sync.RWMutex
	token string

	startOnce sync.Once
	readyOnce sync.Once
	ready     chan struct{}
}

// NewCredentialsGrantClient wraps a requester without starting the refresh
// loop.
func NewCredentialsGrantClient(client Requester) *CredentialsGrantClient {
	return &CredentialsGrantClient{
		client: client,
		ready:  make(chan struct{}),
	}
}

// GetAccessToken returns the current grant token, blocking until the first
// token has been obtained.
func (c *CredentialsGrantClient) GetAccessToken(ctx context.Context) (string, error) {
	c.startOnce.Do(func() {
		go c.refreshLoop()
	})

	select {
	case <-c.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, nil
}

// GetUser fetches a user with the grant token.
func (c *CredentialsGrantClient) GetUser(ctx context.Context, userID uint32) (UserOsu, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return UserOsu{}, err
	}
	return c.client.GetUser(ctx, token, userID)
}

func (c *CredentialsGrantClient) refreshLoop() {
	ctx := context.Background()
	for {
		token, err := retry.UntilSuccess(ctx, 60, "Failed to get client credentials grant token", func() (OsuAuthToken, error) {
			return c.client.GetCredentialsToken(ctx)
		})
		if err != nil {
			return
		}

		c.mu.Lock()
		c.token = token.AccessToken
		c.mu.Unlock()
		c.readyOnce.Do(func() { close(c.ready) })

		lifetime := time.Duration(token.ExpiresIn) * time.Second
		logger.Log.Info("refreshed client credentials grant token",
			zap.Duration("expires_in", lifetime))
		time.Sleep(lifetime - refreshMargin)
	}
}
