package models

import "github.com/mapperinfluences/backend/internal/osuapi"

// LeaderboardUser is one row of the user leaderboard: a mentioned user and
// how many influence edges point at them.
type LeaderboardUser struct {
	User  UserSmall `json:"user"`
	Count uint32    `json:"count"`
}

// LeaderboardBeatmap is one row of the beatmap leaderboard.
type LeaderboardBeatmap struct {
	Beatmap osuapi.BeatmapEnum `json:"beatmap"`
	Count   uint32             `json:"count"`
}
