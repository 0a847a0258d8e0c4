package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/util"
)

// GetGraph serves the cached node and link aggregate of the whole graph.
func (h *Handlers) GetGraph(c *gin.Context) {
	data, err := h.graph.Get()
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
