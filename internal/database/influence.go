package database

import (
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
)

// InfluenceOptions carries the optional edge metadata of a new influence.
type InfluenceOptions struct {
	InfluenceType uint8
	Description   string
	Beatmaps      []uint32
}

// singleInfluenceProjection shapes an influenced_by edge into the wire
// influence, with the target user and its aggregates inlined.
const singleInfluenceProjection = `
	meta::id(out) as user.id,
	out.username as user.username,
	out.avatar_url as user.avatar_url,
	out.country_code as user.country_code,
	out.country_name as user.country_name,
	out.groups as user.groups,
	out.ranked_and_approved_beatmapset_count
		+ out.guest_beatmapset_count as user.ranked_maps,
	count(out<-influenced_by) as user.mentions,
	out.previous_usernames as user.previous_usernames,
	beatmaps,
	description,
	influence_type
`

func (s *DB) takeInfluence(sql string, vars map[string]any) (models.Influence, error) {
	influence, found, err := queryOne[models.Influence](s, sql, vars)
	if err != nil {
		return models.Influence{}, err
	}
	if !found {
		return models.Influence{}, apperror.MissingInfluence()
	}
	if influence.Beatmaps == nil {
		influence.Beatmaps = []osuapi.BeatmapEnum{}
	}
	return influence, nil
}

// AddInfluenceRelation creates the edge with its metadata and returns the
// enriched record.
func (s *DB) AddInfluenceRelation(userID, targetUserID uint32, options InfluenceOptions) (models.Influence, error) {
	beatmaps := options.Beatmaps
	if beatmaps == nil {
		beatmaps = []uint32{}
	}
	return s.takeInfluence(`
		RELATE $user->influenced_by->$target
		SET
			description = $description,
			influence_type = $influence_type,
			beatmaps = $beatmaps
		RETURN `+singleInfluenceProjection+`;
	`, map[string]any{
		"user":           numericalThing("user", userID),
		"target":         numericalThing("user", targetUserID),
		"description":    options.Description,
		"influence_type": options.InfluenceType,
		"beatmaps":       beatmaps,
	})
}

// RemoveInfluenceRelation deletes the edge and returns what it looked like
// before deletion.
func (s *DB) RemoveInfluenceRelation(userID, targetUserID uint32) (models.Influence, error) {
	return s.takeInfluence(`
		LET $deleted = DELETE $own_user->influenced_by WHERE out=$target_user RETURN BEFORE;
		SELECT `+singleInfluenceProjection+` FROM $deleted;
	`, map[string]any{
		"own_user":    numericalThing("user", userID),
		"target_user": numericalThing("user", targetUserID),
	})
}

// AddBeatmapsToInfluence appends beatmaps to the edge.
func (s *DB) AddBeatmapsToInfluence(userID, targetUserID uint32, beatmapIDs []uint32) (models.Influence, error) {
	return s.takeInfluence(`
		UPDATE $own_user->influenced_by SET beatmaps += $beatmap_ids WHERE out=$target_user
		RETURN `+singleInfluenceProjection+`;
	`, map[string]any{
		"own_user":    numericalThing("user", userID),
		"target_user": numericalThing("user", targetUserID),
		"beatmap_ids": beatmapIDs,
	})
}

// RemoveBeatmapFromInfluence removes one beatmap from the edge.
func (s *DB) RemoveBeatmapFromInfluence(userID, targetUserID, beatmapID uint32) (models.Influence, error) {
	return s.takeInfluence(`
		UPDATE $own_user->influenced_by SET beatmaps -= $beatmap_id WHERE out=$target_user
		RETURN `+singleInfluenceProjection+`;
	`, map[string]any{
		"own_user":    numericalThing("user", userID),
		"target_user": numericalThing("user", targetUserID),
		"beatmap_id":  beatmapID,
	})
}

// UpdateInfluenceType replaces the edge's type.
func (s *DB) UpdateInfluenceType(userID, targetUserID uint32, influenceType uint8) (models.Influence, error) {
	return s.takeInfluence(`
		UPDATE $own_user->influenced_by
		SET influence_type = $influence_type WHERE out=$target_user
		RETURN `+singleInfluenceProjection+`;
	`, map[string]any{
		"own_user":       numericalThing("user", userID),
		"target_user":    numericalThing("user", targetUserID),
		"influence_type": influenceType,
	})
}

// UpdateInfluenceDescription replaces the edge's free text.
func (s *DB) UpdateInfluenceDescription(userID, targetUserID uint32, description string) (models.Influence, error) {
	return s.takeInfluence(`
		UPDATE $own_user->influenced_by
		SET description=$description WHERE out=$target_user
		RETURN `+singleInfluenceProjection+`;
	`, map[string]any{
		"own_user":    numericalThing("user", userID),
		"target_user": numericalThing("user", targetUserID),
		"description": description,
	})
}

// GetInfluences pages the user's outgoing edges in their manual order.
func (s *DB) GetInfluences(userID, start, limit uint32) ([]models.Influence, error) {
	influences, err := querySlice[models.Influence](s, `
		SELECT
			`+singleInfluenceProjection+`,
			order
		FROM $thing->influenced_by
		ORDER BY order
		START $start
		LIMIT $limit;
	`, map[string]any{
		"thing": numericalThing("user", userID),
		"start": start,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range influences {
		if influences[i].Beatmaps == nil {
			influences[i].Beatmaps = []osuapi.BeatmapEnum{}
		}
	}
	return influences, nil
}

// GetMentions pages the edges pointing at the user, most mentioned sources
// first. Edge beatmaps are deliberately left out of the payload.
func (s *DB) GetMentions(userID, start, limit uint32) ([]models.Influence, error) {
	mentions, err := querySlice[models.Influence](s, `
		SELECT
			meta::id(in) as user.id,
			in.username as user.username,
			in.avatar_url as user.avatar_url,
			in.country_code as user.country_code,
			in.country_name as user.country_name,
			in.groups as user.groups,
			in.ranked_and_approved_beatmapset_count
				+ in.guest_beatmapset_count as user.ranked_maps,
			count(in<-influenced_by) as user.mentions,
			in.previous_usernames as user.previous_usernames,
			influence_type,
			description
		FROM $thing<-influenced_by
		ORDER BY user.mentions DESC
		START $start
		LIMIT $limit;
	`, map[string]any{
		"thing": numericalThing("user", userID),
		"start": start,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range mentions {
		mentions[i].Beatmaps = []osuapi.BeatmapEnum{}
	}
	return mentions, nil
}
