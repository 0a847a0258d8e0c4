// Package websocket carries the activity feed to browsers. The feed is
// one-directional: the server sends the ring snapshot on connect and every
// accepted activity afterwards; frames from the client are discarded.
package websocket

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/mapperinfluences/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

// Client is a single feed subscription over one WebSocket connection.
type Client struct {
	ID   uuid.UUID
	conn *websocket.Conn

	// Broadcast messages from the activity tracker
	messages <-chan string

	// Unsubscribes from the tracker's broadcaster
	unsubscribe func()
}

// NewClient wraps an accepted connection and its tracker subscription.
func NewClient(conn *websocket.Conn, messages <-chan string, unsubscribe func()) *Client {
	return &Client{
		ID:          uuid.New(),
		conn:        conn,
		messages:    messages,
		unsubscribe: unsubscribe,
	}
}

// Run sends the initial snapshot and then pumps broadcast messages until the
// peer goes away or ctx is cancelled. It blocks for the connection lifetime.
func (c *Client) Run(ctx context.Context, initialSnapshot string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.unsubscribe()
	defer c.conn.Close(websocket.StatusNormalClosure, "closing")

	c.conn.SetReadLimit(maxMessageSize)

	// The read pump only notices disconnects, incoming frames carry no
	// meaning for the feed.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.conn.Read(ctx); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
					websocket.CloseStatus(err) == websocket.StatusGoingAway {
					logger.Log.Info("Feed client disconnected normally", zap.String("client", c.ID.String()))
				} else if ctx.Err() == nil {
					logger.Log.Debug("Feed client read failed", zap.String("client", c.ID.String()), zap.Error(err))
				}
				return
			}
		}
	}()

	if err := c.write(ctx, initialSnapshot); err != nil {
		logger.Log.Debug("Failed to send initial activities", zap.String("client", c.ID.String()), zap.Error(err))
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.messages:
			if !ok {
				return
			}
			if err := c.write(ctx, message); err != nil {
				logger.Log.Debug("Write error for feed client", zap.String("client", c.ID.String()), zap.Error(err))
				return
			}

		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				logger.Log.Debug("Ping failed for feed client", zap.String("client", c.ID.String()), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) write(ctx context.Context, message string) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, []byte(message))
}
