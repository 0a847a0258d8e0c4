package models

import (
	"time"

	"github.com/mapperinfluences/backend/internal/osuapi"
)

// EventType names what happened in an activity record.
type EventType string

const (
	EventLogin                  EventType = "LOGIN"
	EventAddInfluence           EventType = "ADD_INFLUENCE"
	EventRemoveInfluence        EventType = "REMOVE_INFLUENCE"
	EventAddUserBeatmap         EventType = "ADD_USER_BEATMAP"
	EventRemoveUserBeatmap      EventType = "REMOVE_USER_BEATMAP"
	EventAddInfluenceBeatmap    EventType = "ADD_INFLUENCE_BEATMAP"
	EventRemoveInfluenceBeatmap EventType = "REMOVE_INFLUENCE_BEATMAP"
	EventEditInfluenceDesc      EventType = "EDIT_INFLUENCE_DESC"
	EventEditInfluenceType      EventType = "EDIT_INFLUENCE_TYPE"
	EventEditBio                EventType = "EDIT_BIO"
)

// Activity is one feed event. The variant payload is flattened next to the
// event type; fields that do not apply to the variant stay null.
type Activity struct {
	ID            string              `json:"id"`
	User          UserSmall           `json:"user"`
	CreatedAt     time.Time           `json:"created_at"`
	EventType     EventType           `json:"event_type"`
	Influence     *UserSmall          `json:"influence,omitempty"`
	Beatmap       *osuapi.BeatmapEnum `json:"beatmap,omitempty"`
	Description   *string             `json:"description,omitempty"`
	InfluenceType *uint8              `json:"influence_type,omitempty"`
	Bio           *string             `json:"bio,omitempty"`
}

// BeatmapID returns the referenced beatmap id for beatmap-carrying variants.
func (a *Activity) BeatmapID() (uint32, bool) {
	if a.Beatmap == nil {
		return 0, false
	}
	if a.Beatmap.Enriched() {
		return 0, false
	}
	return a.Beatmap.ID, true
}

// SwapBeatmap replaces the bare beatmap id with an enriched card.
func (a *Activity) SwapBeatmap(beatmap osuapi.OsuBeatmapSmall) {
	if a.Beatmap == nil {
		return
	}
	enriched := osuapi.BeatmapFromSmall(beatmap)
	a.Beatmap = &enriched
}
