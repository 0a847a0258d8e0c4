package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/metrics"
	"github.com/mapperinfluences/backend/internal/util"
	ws "github.com/mapperinfluences/backend/internal/websocket"
	"go.uber.org/zap"
)

// GetActivities returns the current feed ring, newest last.
func (h *Handlers) GetActivities(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.CurrentQueue())
}

// ActivityWebsocket upgrades the connection and streams the feed: one
// snapshot frame, then one frame per accepted activity.
func (h *Handlers) ActivityWebsocket(c *gin.Context) {
	snapshot, messages, cancel, err := h.tracker.NewConnection()
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// cookies already authenticated the request
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		cancel()
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(conn, messages, cancel)
	logger.Log.Info("Feed client connected", zap.String("client", client.ID.String()))

	gauge := metrics.Get().WebsocketConnections
	gauge.Inc()
	defer gauge.Dec()

	client.Run(c.Request.Context(), snapshot)
}
