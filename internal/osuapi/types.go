package osuapi

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Identified is implemented by every upstream record carrying a numeric id,
// so the cached requester can key its TTL cache generically.
type Identified interface {
	GetID() uint32
}

// OsuAuthToken is the token grant response. The upstream also returns a
// refresh_token but we never use it.
type OsuAuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   uint32 `json:"expires_in"`
}

type authRequest struct {
	ClientID     string  `json:"client_id"`
	ClientSecret string  `json:"client_secret"`
	GrantType    string  `json:"grant_type"`
	RedirectURI  string  `json:"redirect_uri"`
	Scope        *string `json:"scope"`
	Code         *string `json:"code"`
}

// UserID wraps a bare user id in search responses.
type UserID struct {
	ID uint32 `json:"id"`
}

// OsuMultipleUser is the compact user shape returned by the batched users
// endpoint.
type OsuMultipleUser struct {
	ID        uint32 `json:"id"`
	AvatarURL string `json:"avatar_url"`
	Username  string `json:"username"`
}

func (u OsuMultipleUser) GetID() uint32 { return u.ID }

// Country is the code and display name pair of a user's country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Group is a badge group a user belongs to.
type Group struct {
	Colour    *string `json:"colour"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
}

// UserOsu is the full user shape of the osu! API.
type UserOsu struct {
	ID                               uint32   `json:"id"`
	Username                         string   `json:"username"`
	AvatarURL                        string   `json:"avatar_url"`
	Country                          Country  `json:"country"`
	Groups                           []Group  `json:"groups"`
	PreviousUsernames                []string `json:"previous_usernames"`
	RankedAndApprovedBeatmapsetCount uint32   `json:"ranked_and_approved_beatmapset_count"`
	RankedBeatmapsetCount            uint32   `json:"ranked_beatmapset_count"`
	NominatedBeatmapsetCount         uint32   `json:"nominated_beatmapset_count"`
	GuestBeatmapsetCount             uint32   `json:"guest_beatmapset_count"`
	LovedBeatmapsetCount             uint32   `json:"loved_beatmapset_count"`
	GraveyardBeatmapsetCount         uint32   `json:"graveyard_beatmapset_count"`
	PendingBeatmapsetCount           uint32   `json:"pending_beatmapset_count"`
}

// IsRankedMapper reports whether the user has at least one ranked, loved or
// guest beatmapset.
func (u *UserOsu) IsRankedMapper() bool {
	return u.RankedBeatmapsetCount+u.LovedBeatmapsetCount+u.GuestBeatmapsetCount > 0
}

type OsuSearchUserData struct {
	Data []UserID `json:"data"`
}

type OsuSearchUserResponse struct {
	User OsuSearchUserData `json:"user"`
}

// BeatmapOsu is a single difficulty inside a beatmapset.
type BeatmapOsu struct {
	DifficultyRating float64 `json:"difficulty_rating"`
	ID               uint32  `json:"id"`
	Mode             string  `json:"mode"`
	BeatmapsetID     uint32  `json:"beatmapset_id"`
	Version          string  `json:"version"`
}

type BeatmapsetRelatedUser struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type Covers struct {
	Cover string `json:"cover"`
}

type BaseBeatmapset struct {
	Beatmaps []BeatmapOsu `json:"beatmaps"`
	Title    string       `json:"title"`
	Artist   string       `json:"artist"`
	Covers   Covers       `json:"covers"`
	Creator  string       `json:"creator"`
	ID       uint32       `json:"id"`
	UserID   uint32       `json:"user_id"`
}

type BeatmapsetOsu struct {
	BaseBeatmapset
	RelatedUsers []BeatmapsetRelatedUser `json:"related_users"`
}

type OsuSearchMapResponse struct {
	Beatmapsets []BaseBeatmapset `json:"beatmapsets"`
}

// OsuMultipleBeatmap is the compact beatmap shape returned by the batched
// beatmaps endpoint, including its beatmapset summary.
type OsuMultipleBeatmap struct {
	ID               uint32                `json:"id"`
	DifficultyRating float32               `json:"difficulty_rating"`
	Mode             string                `json:"mode"`
	BeatmapsetID     uint32                `json:"beatmapset_id"`
	Version          string                `json:"version"`
	UserID           uint32                `json:"user_id"`
	Beatmapset       OsuMultipleBeatmapset `json:"beatmapset"`
}

func (b OsuMultipleBeatmap) GetID() uint32 { return b.ID }

type OsuMultipleBeatmapset struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Covers  Covers `json:"covers"`
	UserID  uint32 `json:"user_id"`
	Creator string `json:"creator"`
}

// OsuBeatmapSmall is the enriched beatmap card shape, a beatmap combined
// with its mapper's name and avatar.
type OsuBeatmapSmall struct {
	ID               uint32  `json:"id"`
	DifficultyRating float32 `json:"difficulty_rating"`
	Mode             string  `json:"mode"`
	BeatmapsetID     uint32  `json:"beatmapset_id"`
	Version          string  `json:"version"`
	UserID           uint32  `json:"user_id"`
	UserName         string  `json:"user_name"`
	UserAvatarURL    string  `json:"user_avatar_url"`
	Title            string  `json:"title"`
	Artist           string  `json:"artist"`
	Cover            string  `json:"cover"`
}

// BeatmapSmallFromMultiple combines a batched beatmap with its mapper's
// data. When the mapper is missing from the batched user response, which
// happens if the original mapper is restricted, it falls back to the
// beatmapset submitter; if the submitter is restricted too, the synthetic
// avatar URL resolves to the guest picture upstream.
func BeatmapSmallFromMultiple(beatmap OsuMultipleBeatmap, user *OsuMultipleUser) OsuBeatmapSmall {
	var userName, userAvatarURL string
	if user != nil {
		userName = user.Username
		userAvatarURL = user.AvatarURL
	} else {
		userName = beatmap.Beatmapset.Creator
		userAvatarURL = fmt.Sprintf("https://a.ppy.sh/%d?", beatmap.Beatmapset.UserID)
	}

	return OsuBeatmapSmall{
		ID:               beatmap.ID,
		DifficultyRating: beatmap.DifficultyRating,
		Mode:             beatmap.Mode,
		BeatmapsetID:     beatmap.BeatmapsetID,
		Version:          beatmap.Version,
		UserID:           beatmap.UserID,
		UserName:         userName,
		UserAvatarURL:    userAvatarURL,
		Title:            beatmap.Beatmapset.Title,
		Artist:           beatmap.Beatmapset.Artist,
		Cover:            beatmap.Beatmapset.Covers.Cover,
	}
}

// BeatmapsetSmall is the enriched beatmapset card shape used by the map
// search endpoint.
type BeatmapsetSmall struct {
	ID            uint32       `json:"id"`
	Title         string       `json:"title"`
	Artist        string       `json:"artist"`
	Cover         string       `json:"cover"`
	UserID        uint32       `json:"user_id"`
	UserName      string       `json:"user_name"`
	UserAvatarURL string       `json:"user_avatar_url"`
	Beatmaps      []BeatmapOsu `json:"beatmaps"`
}

// BeatmapsetSmallFromBase mirrors the beatmap card fallback for beatmapsets.
func BeatmapsetSmallFromBase(set BaseBeatmapset, user *OsuMultipleUser) BeatmapsetSmall {
	var userName, userAvatarURL string
	if user != nil {
		userName = user.Username
		userAvatarURL = user.AvatarURL
	} else {
		userName = set.Creator
		userAvatarURL = fmt.Sprintf("https://a.ppy.sh/%d?", set.UserID)
	}

	return BeatmapsetSmall{
		ID:            set.ID,
		Title:         set.Title,
		Artist:        set.Artist,
		Cover:         set.Covers.Cover,
		UserID:        set.UserID,
		UserName:      userName,
		UserAvatarURL: userAvatarURL,
		Beatmaps:      set.Beatmaps,
	}
}

// BeatmapEnum is a beatmap reference that arrives either as a bare id or as
// a full beatmap card. Outbound payloads are always enriched before
// serialization; inbound payloads accept both shapes for robustness.
type BeatmapEnum struct {
	Beatmap *OsuBeatmapSmall
	ID      uint32
}

// BeatmapFromID creates an id-only reference.
func BeatmapFromID(id uint32) BeatmapEnum {
	return BeatmapEnum{ID: id}
}

// BeatmapFromSmall creates an enriched reference.
func BeatmapFromSmall(beatmap OsuBeatmapSmall) BeatmapEnum {
	return BeatmapEnum{Beatmap: &beatmap, ID: beatmap.ID}
}

// GetID returns the referenced beatmap id in either shape.
func (b BeatmapEnum) GetID() uint32 {
	if b.Beatmap != nil {
		return b.Beatmap.ID
	}
	return b.ID
}

// Enriched reports whether the reference carries the full card.
func (b BeatmapEnum) Enriched() bool {
	return b.Beatmap != nil
}

func (b BeatmapEnum) MarshalJSON() ([]byte, error) {
	if b.Beatmap != nil {
		return json.Marshal(b.Beatmap)
	}
	return json.Marshal(b.ID)
}

func (b *BeatmapEnum) UnmarshalJSON(data []byte) error {
	var id uint32
	if err := json.Unmarshal(data, &id); err == nil {
		*b = BeatmapEnum{ID: id}
		return nil
	}
	var beatmap OsuBeatmapSmall
	if err := json.Unmarshal(data, &beatmap); err != nil {
		return err
	}
	*b = BeatmapEnum{Beatmap: &beatmap, ID: beatmap.ID}
	return nil
}

// The database stores beatmap references as bare ids; rows decode through
// CBOR, so the union has to speak that too.
func (b BeatmapEnum) MarshalCBOR() ([]byte, error) {
	if b.Beatmap != nil {
		return cbor.Marshal(b.Beatmap)
	}
	return cbor.Marshal(b.ID)
}

func (b *BeatmapEnum) UnmarshalCBOR(data []byte) error {
	var id uint32
	if err := cbor.Unmarshal(data, &id); err == nil {
		*b = BeatmapEnum{ID: id}
		return nil
	}
	var beatmap OsuBeatmapSmall
	if err := cbor.Unmarshal(data, &beatmap); err != nil {
		return err
	}
	*b = BeatmapEnum{Beatmap: &beatmap, ID: beatmap.ID}
	return nil
}
