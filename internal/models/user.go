// Package models holds the domain records stored in SurrealDB and the
// shapes they take on the wire.
package models

import "github.com/mapperinfluences/backend/internal/osuapi"

// UserSmall is the compact user shape embedded in influences, activities and
// leaderboard rows. RankedMaps and Mentions are aggregate counts computed in
// the database projection.
type UserSmall struct {
	ID                uint32         `json:"id"`
	Username          string         `json:"username"`
	AvatarURL         string         `json:"avatar_url"`
	CountryCode       string         `json:"country_code"`
	CountryName       string         `json:"country_name"`
	Groups            []osuapi.Group `json:"groups"`
	RankedMaps        uint32         `json:"ranked_maps"`
	Mentions          uint32         `json:"mentions"`
	PreviousUsernames []string       `json:"previous_usernames"`
}

// UserSmallFromOsu lifts an upstream record to the compact shape. Mentions
// starts at zero, the upstream knows nothing about local edges.
func UserSmallFromOsu(osuUser *osuapi.UserOsu) UserSmall {
	return UserSmall{
		ID:                osuUser.ID,
		Username:          osuUser.Username,
		AvatarURL:         osuUser.AvatarURL,
		CountryCode:       osuUser.Country.Code,
		CountryName:       osuUser.Country.Name,
		Groups:            osuUser.Groups,
		RankedMaps:        osuUser.RankedAndApprovedBeatmapsetCount + osuUser.GuestBeatmapsetCount,
		PreviousUsernames: osuUser.PreviousUsernames,
	}
}

// User is the full profile returned by the user endpoints.
type User struct {
	ID                uint32               `json:"id"`
	Username          string               `json:"username"`
	AvatarURL         string               `json:"avatar_url"`
	Bio               string               `json:"bio"`
	CountryCode       string               `json:"country_code"`
	CountryName       string               `json:"country_name"`
	Groups            []osuapi.Group       `json:"groups"`
	PreviousUsernames []string             `json:"previous_usernames"`
	Beatmaps          []osuapi.BeatmapEnum `json:"beatmaps"`
	RankedMapper      bool                 `json:"ranked_mapper"`
	Authenticated     bool                 `json:"authenticated"`
	Mentions          *uint32              `json:"mentions,omitempty"`
}

// UserFromOsu builds an unauthenticated profile from an upstream record.
// Site-local fields start empty.
func UserFromOsu(osuUser *osuapi.UserOsu) User {
	return User{
		ID:                osuUser.ID,
		Username:          osuUser.Username,
		AvatarURL:         osuUser.AvatarURL,
		CountryCode:       osuUser.Country.Code,
		CountryName:       osuUser.Country.Name,
		Groups:            osuUser.Groups,
		PreviousUsernames: osuUser.PreviousUsernames,
		Beatmaps:          []osuapi.BeatmapEnum{},
		RankedMapper:      osuUser.IsRankedMapper(),
	}
}
