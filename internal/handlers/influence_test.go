package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(targetID uint32, beatmapIDs ...uint32) models.Influence {
	beatmaps := make([]osuapi.BeatmapEnum, len(beatmapIDs))
	for i, id := range beatmapIDs {
		beatmaps[i] = osuapi.BeatmapFromID(id)
	}
	return models.Influence{
		User:     models.UserSmall{ID: targetID, Username: "target"},
		Beatmaps: beatmaps,
	}
}

func TestAddInfluenceResolvesTargetAndStoresEdge(t *testing.T) {
	f := newFixture(t)
	f.requester.getUser = func(_ context.Context, _ string, userID uint32) (osuapi.UserOsu, error) {
		return osuapi.UserOsu{ID: userID, Username: "target"}, nil
	}
	f.combined.beatmaps[5] = osuapi.OsuMultipleBeatmap{ID: 5}
	f.combined.cards[5] = card(5, "five")
	f.db.influenceResult = edge(2, 5)

	body := strings.NewReader(`{"user_id":"2","influence_type":3,"description":"d","beatmaps":[5]}`)
	recorder := f.serve(f.authedRequest(t, http.MethodPost, "/influence", body))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, f.db.upserted, 1)
	assert.Equal(t, uint32(2), f.db.upserted[0].ID)
	// a target stored through an influence is not an authenticated login
	assert.Equal(t, []bool{false}, f.db.upsertedAuth)
	assert.Equal(t, []models.EventType{models.EventAddInfluence}, f.db.activities)

	var influence models.Influence
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &influence))
	require.Len(t, influence.Beatmaps, 1)
	assert.Equal(t, "five", influence.Beatmaps[0].Beatmap.Title)
}

func TestAddInfluenceRejectsNonNumericTarget(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"user_id":"not-a-number"}`)
	recorder := f.serve(f.authedRequest(t, http.MethodPost, "/influence", body))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	assert.Empty(t, f.db.upserted)
}

func TestAddInfluenceRejectsUnknownBeatmap(t *testing.T) {
	f := newFixture(t)
	f.requester.getUser = func(_ context.Context, _ string, userID uint32) (osuapi.UserOsu, error) {
		return osuapi.UserOsu{ID: userID, Username: "target"}, nil
	}

	body := strings.NewReader(`{"user_id":"2","beatmaps":[404]}`)
	recorder := f.serve(f.authedRequest(t, http.MethodPost, "/influence", body))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "NON_EXISTING_MAP")
	assert.Empty(t, f.db.upserted)
}

func TestDeleteInfluenceReturnsLastState(t *testing.T) {
	f := newFixture(t)
	f.db.influenceResult = edge(2)
	// removals are hidden by default, this user opted in
	preferences := models.DefaultActivityPreferences()
	preferences.RemoveInfluence = true
	f.db.preferences[testUserID] = preferences

	recorder := f.serve(f.authedRequest(t, http.MethodDelete, "/influence/2", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var influence models.Influence
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &influence))
	assert.Equal(t, uint32(2), influence.User.ID)
	assert.Equal(t, []models.EventType{models.EventRemoveInfluence}, f.db.activities)
}

func TestDeleteInfluenceSkipsActivityByDefault(t *testing.T) {
	f := newFixture(t)
	f.db.influenceResult = edge(2)

	recorder := f.serve(f.authedRequest(t, http.MethodDelete, "/influence/2", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, f.db.activities)
}

func TestUpdateInfluenceDescriptionRejectsOverlongText(t *testing.T) {
	f := newFixture(t)

	body := strings.NewReader(`{"description":"` + strings.Repeat("a", maxDescriptionLength+1) + `"}`)
	recorder := f.serve(f.authedRequest(t, http.MethodPatch, "/influence/2/description", body))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "STRING_TOO_LONG")
}

func TestUpdateInfluenceTypeParsesPathParam(t *testing.T) {
	f := newFixture(t)
	f.db.influenceResult = edge(2)

	recorder := f.serve(f.authedRequest(t, http.MethodPatch, "/influence/2/type/4", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []models.EventType{models.EventEditInfluenceType}, f.db.activities)
}

func TestUpdateInfluenceTypeRejectsOverflow(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(f.authedRequest(t, http.MethodPatch, "/influence/2/type/300", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	assert.Empty(t, f.db.activities)
}

func TestGetInfluencesEnrichesSharedBeatmaps(t *testing.T) {
	f := newFixture(t)
	// beatmap 5 sits on both edges, enrichment must not consume it
	f.db.influences[9] = []models.Influence{edge(2, 5, 6), edge(3, 5)}
	f.combined.cards[5] = card(5, "five")
	f.combined.cards[6] = card(6, "six")

	recorder := f.serve(f.authedRequest(t, http.MethodGet, "/influence/influences/9", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var influences []models.Influence
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &influences))
	require.Len(t, influences, 2)

	require.Len(t, influences[0].Beatmaps, 2)
	assert.Equal(t, "five", influences[0].Beatmaps[0].Beatmap.Title)
	assert.Equal(t, "six", influences[0].Beatmaps[1].Beatmap.Title)
	require.Len(t, influences[1].Beatmaps, 1)
	assert.Equal(t, "five", influences[1].Beatmaps[0].Beatmap.Title)
}

func TestGetInfluencesDropsUnresolvedBeatmaps(t *testing.T) {
	f := newFixture(t)
	f.db.influences[9] = []models.Influence{edge(2, 5, 404)}
	f.combined.cards[5] = card(5, "five")

	recorder := f.serve(f.authedRequest(t, http.MethodGet, "/influence/influences/9", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var influences []models.Influence
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &influences))
	require.Len(t, influences, 1)
	require.Len(t, influences[0].Beatmaps, 1)
	assert.Equal(t, uint32(5), influences[0].Beatmaps[0].GetID())
}

func TestGetMentionsKeepsBeatmapsUntouched(t *testing.T) {
	f := newFixture(t)
	f.db.mentions[9] = []models.Influence{{User: models.UserSmall{ID: 4, Username: "fan"}}}

	recorder := f.serve(f.authedRequest(t, http.MethodGet, "/influence/mentions/9", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var mentions []models.Influence
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &mentions))
	require.Len(t, mentions, 1)
	assert.Equal(t, "fan", mentions[0].User.Username)
	assert.Empty(t, mentions[0].Beatmaps)
}
