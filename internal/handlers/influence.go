package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/auth"
	"github.com/mapperinfluences/backend/internal/database"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/util"
	"golang.org/x/sync/errgroup"
)

const maxDescriptionLength = 5000

type descriptionRequest struct {
	Description string `json:"description"`
}

// influenceRequest is the add-influence body. The target id arrives as a
// string, the frontend sends it that way.
type influenceRequest struct {
	UserID        string   `json:"user_id"`
	InfluenceType *uint8   `json:"influence_type"`
	Description   *string  `json:"description"`
	Beatmaps      []uint32 `json:"beatmaps"`
}

// AddInfluence resolves the target user upstream, stores it locally and
// creates the influence edge.
func (h *Handlers) AddInfluence(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var request influenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid influence body"))
		return
	}
	targetID64, err := strconv.ParseUint(request.UserID, 10, 32)
	if err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid user_id in influence body"))
		return
	}
	targetID := uint32(targetID64)
	ctx := c.Request.Context()

	targetUser, err := h.requester.GetUser(ctx, claims.OsuToken, targetID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	if err := h.checkMultipleMaps(ctx, claims.OsuToken, request.Beatmaps); err != nil {
		util.RespondWithError(c, err)
		return
	}

	options := database.InfluenceOptions{Beatmaps: request.Beatmaps}
	if request.InfluenceType != nil {
		options.InfluenceType = *request.InfluenceType
	}
	if request.Description != nil {
		options.Description = *request.Description
	}

	var influence models.Influence
	group := errgroup.Group{}
	group.Go(func() error { return h.db.UpsertUser(targetUser, false) })
	group.Go(func() error {
		var relateErr error
		influence, relateErr = h.db.AddInfluenceRelation(claims.UserID, targetID, options)
		return relateErr
	})
	if err := group.Wait(); err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventAddInfluence, database.ActivityDetails{Influence: &targetID})
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// DeleteInfluence removes the edge and returns its last state.
func (h *Handlers) DeleteInfluence(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := util.ParseUint32Param(c, "influenced_to")
	if !ok {
		return
	}

	influence, err := h.db.RemoveInfluenceRelation(claims.UserID, targetID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventRemoveInfluence, database.ActivityDetails{Influence: &targetID})
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// AddInfluenceBeatmaps attaches beatmaps to an existing edge.
func (h *Handlers) AddInfluenceBeatmaps(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := util.ParseUint32Param(c, "influenced_to")
	if !ok {
		return
	}

	var request beatmapsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid beatmaps body"))
		return
	}

	if err := h.checkMultipleMaps(c.Request.Context(), claims.OsuToken, request.Beatmaps); err != nil {
		util.RespondWithError(c, err)
		return
	}

	influence, err := h.db.AddBeatmapsToInfluence(claims.UserID, targetID, request.Beatmaps)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	for _, beatmapID := range request.Beatmaps {
		id := beatmapID
		h.recordActivity(claims.UserID, models.EventAddInfluenceBeatmap, database.ActivityDetails{
			Influence: &targetID,
			Beatmap:   &id,
		})
	}
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// DeleteInfluenceBeatmap detaches one beatmap from an edge.
func (h *Handlers) DeleteInfluenceBeatmap(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := util.ParseUint32Param(c, "influenced_to")
	if !ok {
		return
	}
	beatmapID, ok := util.ParseUint32Param(c, "beatmap_id")
	if !ok {
		return
	}

	influence, err := h.db.RemoveBeatmapFromInfluence(claims.UserID, targetID, beatmapID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventRemoveInfluenceBeatmap, database.ActivityDetails{
		Influence: &targetID,
		Beatmap:   &beatmapID,
	})
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// UpdateInfluenceDescription rewrites an edge's description.
func (h *Handlers) UpdateInfluenceDescription(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := util.ParseUint32Param(c, "influenced_to")
	if !ok {
		return
	}

	var request descriptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid description body"))
		return
	}
	if len(request.Description) > maxDescriptionLength {
		util.RespondWithAPIError(c, apperror.StringTooLong("description"))
		return
	}

	influence, err := h.db.UpdateInfluenceDescription(claims.UserID, targetID, request.Description)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventEditInfluenceDesc, database.ActivityDetails{
		Influence:   &targetID,
		Description: &request.Description,
	})
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// UpdateInfluenceType rewrites an edge's type.
func (h *Handlers) UpdateInfluenceType(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	targetID, ok := util.ParseUint32Param(c, "influenced_to")
	if !ok {
		return
	}
	influenceType, ok := util.ParseUint8Param(c, "type_id")
	if !ok {
		return
	}

	influence, err := h.db.UpdateInfluenceType(claims.UserID, targetID, influenceType)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventEditInfluenceType, database.ActivityDetails{
		Influence:     &targetID,
		InfluenceType: &influenceType,
	})
	h.enrichInfluence(c, claims.OsuToken, influence)
}

// GetInfluences returns a user's outgoing influences with enriched beatmaps,
// preserving both edge order and per-edge beatmap order.
func (h *Handlers) GetInfluences(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	userID, ok := util.ParseUint32Param(c, "user_id")
	if !ok {
		return
	}
	start, limit := pagination(c)

	influences, err := h.db.GetInfluences(userID, start, limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	var ids []uint32
	for _, influence := range influences {
		ids = append(ids, uniqueBeatmapIDs(influence.Beatmaps)...)
	}
	ids = uniqueIDs(ids)

	if len(ids) > 0 {
		cards, err := h.combined.GetBeatmapsWithUser(c.Request.Context(), ids, claims.OsuToken)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		for i := range influences {
			// the same beatmap can sit on several edges, lookups must not
			// consume the map
			enriched := make([]osuapi.BeatmapEnum, 0, len(influences[i].Beatmaps))
			for _, beatmap := range influences[i].Beatmaps {
				if card, ok := cards[beatmap.GetID()]; ok {
					enriched = append(enriched, osuapi.BeatmapFromSmall(card))
				}
			}
			influences[i].Beatmaps = enriched
		}
	}

	c.JSON(http.StatusOK, influences)
}

// GetMentions returns the influences pointing at a user. Beatmaps stay empty
// on this endpoint.
func (h *Handlers) GetMentions(c *gin.Context) {
	userID, ok := util.ParseUint32Param(c, "user_id")
	if !ok {
		return
	}
	start, limit := pagination(c)

	mentions, err := h.db.GetMentions(userID, start, limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mentions)
}

// uniqueIDs deduplicates while keeping first-seen order.
func uniqueIDs(ids []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(ids))
	result := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
