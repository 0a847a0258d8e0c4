package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/leaderboard"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/util"
)

type leaderboardResponse[T any] struct {
	Leaderboard []T `json:"leaderboard"`
}

func rankedOnly(c *gin.Context) bool {
	return c.Query("ranked") == "true"
}

// GetUserLeaderboard serves the most-mentioned-user leaderboard.
func (h *Handlers) GetUserLeaderboard(c *gin.Context) {
	start, limit := pagination(c)
	key := leaderboard.UserKey{
		RankedOnly: rankedOnly(c),
		Country:    c.Query("country"),
	}

	rows, err := h.userLeaderboards.Get(key, start, limit, func(window uint32) ([]models.LeaderboardUser, error) {
		var country *string
		if key.Country != "" {
			country = &key.Country
		}
		return h.db.UserLeaderboard(country, key.RankedOnly, window, 0)
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, leaderboardResponse[models.LeaderboardUser]{Leaderboard: rows})
}

// GetBeatmapLeaderboard serves the most-referenced-beatmap leaderboard with
// enriched beatmap cards.
func (h *Handlers) GetBeatmapLeaderboard(c *gin.Context) {
	start, limit := pagination(c)
	ranked := rankedOnly(c)
	ctx := c.Request.Context()

	rows, err := h.beatmapLeaderboards.Get(ranked, start, limit, func(window uint32) ([]models.LeaderboardBeatmap, error) {
		entries, err := h.db.BeatmapLeaderboard(ranked, window, 0)
		if err != nil {
			return nil, err
		}

		ids := make([]uint32, len(entries))
		for i, entry := range entries {
			ids[i] = entry.Beatmap.GetID()
		}

		accessToken, err := h.credentials.GetAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		cards, err := h.combined.GetBeatmapsWithUser(ctx, ids, accessToken)
		if err != nil {
			return nil, err
		}

		enriched := make([]models.LeaderboardBeatmap, 0, len(entries))
		for _, entry := range entries {
			card, ok := cards[entry.Beatmap.GetID()]
			if !ok {
				continue
			}
			enriched = append(enriched, models.LeaderboardBeatmap{
				Beatmap: osuapi.BeatmapFromSmall(card),
				Count:   entry.Count,
			})
		}
		return enriched, nil
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, leaderboardResponse[models.LeaderboardBeatmap]{Leaderboard: rows})
}
