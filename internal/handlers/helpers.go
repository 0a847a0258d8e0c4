package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/util"
)

const defaultPageLimit = 100

// pagination reads the start and limit query parameters with their defaults.
func pagination(c *gin.Context) (start, limit uint32) {
	start = util.ParseUint32Query(c, "start", 0)
	limit = util.ParseUint32Query(c, "limit", defaultPageLimit)
	return start, limit
}

// uniqueBeatmapIDs collects the distinct referenced ids in input order.
func uniqueBeatmapIDs(beatmaps []osuapi.BeatmapEnum) []uint32 {
	seen := make(map[uint32]struct{}, len(beatmaps))
	ids := make([]uint32, 0, len(beatmaps))
	for _, beatmap := range beatmaps {
		id := beatmap.GetID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// swapBeatmaps replaces bare beatmap references with enriched cards,
// preserving the input order. Ids the upstream does not resolve are dropped.
func (h *Handlers) swapBeatmaps(ctx context.Context, accessToken string, beatmaps []osuapi.BeatmapEnum) ([]osuapi.BeatmapEnum, error) {
	ids := uniqueBeatmapIDs(beatmaps)
	if len(ids) == 0 {
		return []osuapi.BeatmapEnum{}, nil
	}

	cards, err := h.combined.GetBeatmapsWithUser(ctx, ids, accessToken)
	if err != nil {
		return nil, err
	}

	enriched := make([]osuapi.BeatmapEnum, 0, len(beatmaps))
	for _, beatmap := range beatmaps {
		card, ok := cards[beatmap.GetID()]
		if !ok {
			continue
		}
		enriched = append(enriched, osuapi.BeatmapFromSmall(card))
	}
	return enriched, nil
}

// checkMultipleMaps verifies every id exists upstream before it is written
// anywhere.
func (h *Handlers) checkMultipleMaps(ctx context.Context, accessToken string, beatmapIDs []uint32) error {
	if len(beatmapIDs) == 0 {
		return nil
	}
	beatmaps, err := h.combined.GetBeatmapsOnly(ctx, beatmapIDs, accessToken)
	if err != nil {
		return err
	}
	for _, id := range beatmapIDs {
		if _, ok := beatmaps[id]; !ok {
			return apperror.NonExistingMap(id)
		}
	}
	return nil
}

// enrichInfluence swaps the beatmaps of a freshly written influence record.
func (h *Handlers) enrichInfluence(c *gin.Context, accessToken string, influence models.Influence) {
	beatmaps, err := h.swapBeatmaps(c.Request.Context(), accessToken, influence.Beatmaps)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	influence.Beatmaps = beatmaps
	c.JSON(http.StatusOK, influence)
}
