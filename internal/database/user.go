package database

import (
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
)

// UserRecord is the stored user row plus the aggregates the full profile
// needs.
type UserRecord struct {
	ID                uint32         `json:"id"`
	Username          string         `json:"username"`
	AvatarURL         string         `json:"avatar_url"`
	Bio               string         `json:"bio"`
	Beatmaps          []uint32       `json:"beatmaps"`
	Groups            []osuapi.Group `json:"groups"`
	CountryCode       string         `json:"country_code"`
	CountryName       string         `json:"country_name"`
	PreviousUsernames []string       `json:"previous_usernames"`
	RankedMapper      bool           `json:"ranked_mapper"`
	Authenticated     bool           `json:"authenticated"`
	RankedMaps        uint32         `json:"ranked_maps"`
	Mentions          uint32         `json:"mentions"`
}

// ToUserSmall lifts the stored row to the compact user shape.
func (r UserRecord) ToUserSmall() models.UserSmall {
	return models.UserSmall{
		ID:                r.ID,
		Username:          r.Username,
		AvatarURL:         r.AvatarURL,
		CountryCode:       r.CountryCode,
		CountryName:       r.CountryName,
		Groups:            r.Groups,
		RankedMaps:        r.RankedMaps,
		Mentions:          r.Mentions,
		PreviousUsernames: r.PreviousUsernames,
	}
}

// ToUser lifts the stored row to the wire profile with id-only beatmap
// references.
func (r UserRecord) ToUser() models.User {
	beatmaps := make([]osuapi.BeatmapEnum, len(r.Beatmaps))
	for i, id := range r.Beatmaps {
		beatmaps[i] = osuapi.BeatmapFromID(id)
	}
	mentions := r.Mentions
	return models.User{
		ID:                r.ID,
		Username:          r.Username,
		AvatarURL:         r.AvatarURL,
		Bio:               r.Bio,
		CountryCode:       r.CountryCode,
		CountryName:       r.CountryName,
		Groups:            r.Groups,
		PreviousUsernames: r.PreviousUsernames,
		Beatmaps:          beatmaps,
		RankedMapper:      r.RankedMapper,
		Authenticated:     r.Authenticated,
		Mentions:          &mentions,
	}
}

const userRecordProjection = `
	meta::id(id) as id,
	username,
	avatar_url,
	bio,
	beatmaps,
	groups,
	country_code,
	country_name,
	previous_usernames,
	ranked_mapper,
	authenticated,
	ranked_and_approved_beatmapset_count
		+ guest_beatmapset_count as ranked_maps,
	count(<-influenced_by) as mentions
`

// UpsertUser inserts or refreshes a user row from its upstream record.
// Authenticated is only ever raised, never cleared, so daily refreshes of
// known users keep their login state.
func (s *DB) UpsertUser(user osuapi.UserOsu, authenticated bool) error {
	vars := map[string]any{
		"thing":              numericalThing("user", user.ID),
		"username":           user.Username,
		"avatar_url":         user.AvatarURL,
		"ranked_mapper":      user.IsRankedMapper(),
		"country_code":       user.Country.Code,
		"country_name":       user.Country.Name,
		"groups":             user.Groups,
		"previous_usernames": user.PreviousUsernames,
		"ranked_and_approved_beatmapset_count": user.RankedAndApprovedBeatmapsetCount,
		"ranked_beatmapset_count":              user.RankedBeatmapsetCount,
		"nominated_beatmapset_count":           user.NominatedBeatmapsetCount,
		"guest_beatmapset_count":               user.GuestBeatmapsetCount,
		"loved_beatmapset_count":               user.LovedBeatmapsetCount,
		"graveyard_beatmapset_count":           user.GraveyardBeatmapsetCount,
		"pending_beatmapset_count":             user.PendingBeatmapsetCount,
	}
	var authVar any
	if authenticated {
		authVar = true
	}
	vars["authenticated"] = authVar

	return s.exec(`
		UPSERT $thing
		SET
			username = $username,
			avatar_url = $avatar_url,
			authenticated = authenticated OR $authenticated,
			ranked_mapper = $ranked_mapper,
			country_code = $country_code,
			country_name = $country_name,
			groups = $groups,
			previous_usernames = $previous_usernames,
			ranked_and_approved_beatmapset_count = $ranked_and_approved_beatmapset_count,
			ranked_beatmapset_count = $ranked_beatmapset_count,
			nominated_beatmapset_count = $nominated_beatmapset_count,
			guest_beatmapset_count = $guest_beatmapset_count,
			loved_beatmapset_count = $loved_beatmapset_count,
			graveyard_beatmapset_count = $graveyard_beatmapset_count,
			pending_beatmapset_count = $pending_beatmapset_count,
			updated_at = time::now();
	`, vars)
}

// SetAuthenticated flips the authenticated flag on.
func (s *DB) SetAuthenticated(userID uint32) error {
	return s.exec("UPDATE $thing SET authenticated = true", map[string]any{
		"thing": numericalThing("user", userID),
	})
}

// UpdateBio replaces the user's bio text.
func (s *DB) UpdateBio(userID uint32, bio string) error {
	return s.exec("UPDATE $thing SET bio = $bio", map[string]any{
		"thing": numericalThing("user", userID),
		"bio":   bio,
	})
}

// AddBeatmapToUser appends a beatmap to the user's showcase if not present.
func (s *DB) AddBeatmapToUser(userID, beatmapID uint32) error {
	return s.exec("UPDATE $thing SET beatmaps += $beatmap_id", map[string]any{
		"thing":      numericalThing("user", userID),
		"beatmap_id": beatmapID,
	})
}

// RemoveBeatmapFromUser removes a beatmap from the user's showcase.
func (s *DB) RemoveBeatmapFromUser(userID, beatmapID uint32) error {
	return s.exec("UPDATE $thing SET beatmaps -= $beatmap_id", map[string]any{
		"thing":      numericalThing("user", userID),
		"beatmap_id": beatmapID,
	})
}

// SetInfluenceOrder writes each outgoing edge's position to the index of its
// target in the given list and touches the user's updated_at.
func (s *DB) SetInfluenceOrder(userID uint32, order []uint32) error {
	enumerated := make([][2]uint32, len(order))
	for index, target := range order {
		enumerated[index] = [2]uint32{uint32(index), target}
	}
	return s.exec(`
		FOR $order IN $order_array {
			UPDATE influenced_by SET order = $order.at(0)
			WHERE in = $thing AND out = type::thing("user", $order.at(1));
		};
		UPDATE $thing SET updated_at = time::now();
	`, map[string]any{
		"thing":       numericalThing("user", userID),
		"order_array": enumerated,
	})
}

// GetUserDetails reads one user row, failing with MissingUser when absent.
func (s *DB) GetUserDetails(userID uint32) (UserRecord, error) {
	record, found, err := queryOne[UserRecord](s,
		"SELECT "+userRecordProjection+" FROM $thing;",
		map[string]any{"thing": numericalThing("user", userID)},
	)
	if err != nil {
		return UserRecord{}, err
	}
	if !found {
		return UserRecord{}, apperror.MissingUser(userID)
	}
	return record, nil
}

// GetMultipleUserDetails reads the user rows present locally out of the
// given ids. Unknown ids are silently absent.
func (s *DB) GetMultipleUserDetails(userIDs []uint32) ([]UserRecord, error) {
	return querySlice[UserRecord](s,
		"SELECT "+userRecordProjection+" FROM user WHERE meta::id(id) IN $ids;",
		map[string]any{"ids": userIDs},
	)
}

// GetUsersToUpdate lists every user whose record has not been refreshed
// since the last daily pass. Users created as influence targets age like
// everyone else.
func (s *DB) GetUsersToUpdate() ([]uint32, error) {
	rows, err := querySlice[struct {
		ID uint32 `json:"id"`
	}](s, `
		SELECT meta::id(id) as id FROM user
		WHERE updated_at + 1s < time::now();
	`, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// SetActivityPreferences stores the user's feed visibility switches.
func (s *DB) SetActivityPreferences(userID uint32, preferences models.ActivityPreferences) error {
	return s.exec("UPDATE $thing SET activity_preferences = $preferences", map[string]any{
		"thing":       numericalThing("user", userID),
		"preferences": preferences,
	})
}

// GetActivityPreferences reads the user's switches, falling back to the
// defaults when the user never saved any.
func (s *DB) GetActivityPreferences(userID uint32) (models.ActivityPreferences, error) {
	row, found, err := queryOne[struct {
		Preferences *models.ActivityPreferences `json:"activity_preferences"`
	}](s,
		"SELECT activity_preferences FROM $thing;",
		map[string]any{"thing": numericalThing("user", userID)},
	)
	if err != nil {
		return models.ActivityPreferences{}, err
	}
	if !found || row.Preferences == nil {
		return models.DefaultActivityPreferences(), nil
	}
	return *row.Preferences, nil
}
