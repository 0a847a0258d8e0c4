package models

import "github.com/mapperinfluences/backend/internal/osuapi"

// Influence is one directed edge of the graph, enriched with the target
// user. Beatmaps stay empty on the mentions endpoint even when the edge has
// some.
type Influence struct {
	User          UserSmall            `json:"user"`
	InfluenceType uint8                `json:"influence_type"`
	Description   string               `json:"description"`
	Beatmaps      []osuapi.BeatmapEnum `json:"beatmaps"`
}
