package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/auth"
	"github.com/mapperinfluences/backend/internal/database"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/util"
)

const maxBioLength = 5000

type bioRequest struct {
	Bio string `json:"bio"`
}

type orderRequest struct {
	InfluenceIDs []uint32 `json:"influence_ids"`
}

type beatmapsRequest struct {
	Beatmaps []uint32 `json:"beatmaps"`
}

// completeUser enriches a stored user's beatmap references in input order.
func (h *Handlers) completeUser(c *gin.Context, osuToken string, record database.UserRecord) (models.User, bool) {
	user := record.ToUser()
	beatmaps, err := h.swapBeatmaps(c.Request.Context(), osuToken, user.Beatmaps)
	if err != nil {
		util.RespondWithError(c, err)
		return models.User{}, false
	}
	user.Beatmaps = beatmaps
	return user, true
}

// GetMe returns the authenticated user's own full profile.
func (h *Handlers) GetMe(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	record, err := h.db.GetUserDetails(claims.UserID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	user, ok := h.completeUser(c, claims.OsuToken, record)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns any user's profile. Users absent from the local database
// fall back to their upstream record with empty beatmaps and null mentions.
func (h *Handlers) GetUser(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	userID, ok := util.ParseUint32Param(c, "user_id")
	if !ok {
		return
	}

	record, err := h.db.GetUserDetails(userID)
	if apperror.IsCode(err, apperror.ErrMissingUser) {
		osuUser, err := h.users.GetUser(c.Request.Context(), claims.OsuToken, userID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.UserFromOsu(&osuUser))
		return
	}
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	user, ok := h.completeUser(c, claims.OsuToken, record)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateBio replaces the authenticated user's bio.
func (h *Handlers) UpdateBio(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var request bioRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid bio body"))
		return
	}
	if len(request.Bio) > maxBioLength {
		util.RespondWithAPIError(c, apperror.StringTooLong("bio"))
		return
	}

	if err := h.db.UpdateBio(claims.UserID, request.Bio); err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventEditBio, database.ActivityDetails{Bio: &request.Bio})
	c.Status(http.StatusOK)
}

// AddUserBeatmaps adds showcase beatmaps after verifying every id upstream,
// then returns the full profile with enriched beatmaps.
func (h *Handlers) AddUserBeatmaps(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var request beatmapsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid beatmaps body"))
		return
	}

	if err := h.checkMultipleMaps(c.Request.Context(), claims.OsuToken, request.Beatmaps); err != nil {
		util.RespondWithError(c, err)
		return
	}

	for _, beatmapID := range request.Beatmaps {
		if err := h.db.AddBeatmapToUser(claims.UserID, beatmapID); err != nil {
			util.RespondWithError(c, err)
			return
		}
		id := beatmapID
		h.recordActivity(claims.UserID, models.EventAddUserBeatmap, database.ActivityDetails{Beatmap: &id})
	}

	record, err := h.db.GetUserDetails(claims.UserID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	user, ok := h.completeUser(c, claims.OsuToken, record)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUserBeatmap removes one showcase beatmap.
func (h *Handlers) DeleteUserBeatmap(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	beatmapID, ok := util.ParseUint32Param(c, "beatmap_id")
	if !ok {
		return
	}

	if err := h.db.RemoveBeatmapFromUser(claims.UserID, beatmapID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.recordActivity(claims.UserID, models.EventRemoveUserBeatmap, database.ActivityDetails{Beatmap: &beatmapID})
	c.Status(http.StatusOK)
}

// SetInfluenceOrder rewrites the order of the user's outgoing influences.
func (h *Handlers) SetInfluenceOrder(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var request orderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid influence order body"))
		return
	}

	if err := h.db.SetInfluenceOrder(claims.UserID, request.InfluenceIDs); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GetActivityPreferences returns the user's feed visibility switches.
func (h *Handlers) GetActivityPreferences(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	preferences, err := h.db.GetActivityPreferences(claims.UserID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferences)
}

// SetActivityPreferences stores the user's feed visibility switches.
func (h *Handlers) SetActivityPreferences(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var preferences models.ActivityPreferences
	if err := c.ShouldBindJSON(&preferences); err != nil {
		util.RespondWithAPIError(c, apperror.Validation("invalid preferences body"))
		return
	}

	if err := h.db.SetActivityPreferences(claims.UserID, preferences); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferences)
}
