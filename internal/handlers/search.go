package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/auth"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/util"
)

// only the top results are worth a detail lookup
const userSearchResults = 3

// SearchUsers proxies the osu! user search and backfills local aggregates for
// users the database knows.
func (h *Handlers) SearchUsers(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	query := c.Param("query")

	if cached, ok := h.userSearch.get(query); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	ctx := c.Request.Context()

	searchResponse, err := h.requester.SearchUser(ctx, claims.OsuToken, query)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	ids := make([]uint32, 0, userSearchResults)
	for _, user := range searchResponse.User.Data {
		if len(ids) == userSearchResults {
			break
		}
		ids = append(ids, user.ID)
	}

	records, err := h.db.GetMultipleUserDetails(ids)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	known := make(map[uint32]struct{}, len(records))
	users := make([]models.UserSmall, 0, len(ids))
	for _, record := range records {
		known[record.ID] = struct{}{}
		users = append(users, record.ToUserSmall())
	}

	// ids without a local record fall back to the cached upstream lookup
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		osuUser, err := h.users.GetUser(ctx, claims.OsuToken, id)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		users = append(users, models.UserSmallFromOsu(&osuUser))
	}

	h.userSearch.set(query, users)
	c.JSON(http.StatusOK, users)
}

// SearchMaps proxies the osu! beatmapset search with the raw query string and
// enriches each result with its mapper's card.
func (h *Handlers) SearchMaps(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	query := c.Request.URL.RawQuery

	if cached, ok := h.mapSearch.get(query); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	ctx := c.Request.Context()

	searchResponse, err := h.requester.SearchMap(ctx, claims.OsuToken, query)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	var userIDs []uint32
	for _, beatmapset := range searchResponse.Beatmapsets {
		userIDs = append(userIDs, beatmapset.UserID)
	}
	userIDs = uniqueIDs(userIDs)

	users, err := h.combined.GetUsersOnly(ctx, userIDs, claims.OsuToken)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	beatmapsets := make([]osuapi.BeatmapsetSmall, 0, len(searchResponse.Beatmapsets))
	for _, beatmapset := range searchResponse.Beatmapsets {
		var user *osuapi.OsuMultipleUser
		if value, ok := users[beatmapset.UserID]; ok {
			user = &value
		}
		beatmapsets = append(beatmapsets, osuapi.BeatmapsetSmallFromBase(beatmapset, user))
	}

	h.mapSearch.set(query, beatmapsets)
	c.JSON(http.StatusOK, beatmapsets)
}

// SingleBeatmap returns one enriched beatmap card by id.
func (h *Handlers) SingleBeatmap(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	beatmapID, ok := util.ParseUint32Param(c, "beatmap_id")
	if !ok {
		return
	}

	cards, err := h.combined.GetBeatmapsWithUser(c.Request.Context(), []uint32{beatmapID}, claims.OsuToken)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	card, found := cards[beatmapID]
	if !found {
		util.RespondWithAPIError(c, apperror.NonExistingMap(beatmapID))
		return
	}
	c.JSON(http.StatusOK, card)
}
