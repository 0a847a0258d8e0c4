package database

import (
	"github.com/mapperinfluences/backend/internal/models"
)

// UserLeaderboard aggregates mention counts per user, most mentioned first.
// With rankedOnly, only edges drawn by ranked mappers count. A nil country
// skips the country filter.
func (s *DB) UserLeaderboard(country *string, rankedOnly bool, limit, start uint32) ([]models.LeaderboardUser, error) {
	return querySlice[models.LeaderboardUser](s, `
		SELECT
			meta::id(id) as user.id,
			username as user.username,
			avatar_url as user.avatar_url,
			country_code as user.country_code,
			country_name as user.country_name,
			groups as user.groups,
			ranked_and_approved_beatmapset_count
				+ guest_beatmapset_count as user.ranked_maps,
			count(<-influenced_by) as user.mentions,
			previous_usernames as user.previous_usernames,
			count(<-influenced_by<-(user WHERE ranked_mapper = true OR $ranked_only = false)) as count
		FROM user
		WHERE
			count(<-influenced_by) > 0
			AND ($country = none OR country_code = $country)
		ORDER BY count DESC
		LIMIT $limit
		START $start;
	`, map[string]any{
		"country":     country,
		"ranked_only": rankedOnly,
		"limit":       limit,
		"start":       start,
	})
}

// BeatmapLeaderboard aggregates how often each beatmap appears on influence
// edges. Rows come back with bare beatmap ids; enrichment happens in the
// leaderboard cache.
func (s *DB) BeatmapLeaderboard(rankedOnly bool, limit, start uint32) ([]models.LeaderboardBeatmap, error) {
	return querySlice[models.LeaderboardBeatmap](s, `
		SELECT beatmap, count() as count FROM (
			SELECT beatmaps as beatmap FROM influenced_by
			WHERE
				array::len(beatmaps) > 0
				AND (in.ranked_mapper = true OR $ranked_only = false)
			SPLIT beatmap
		)
		GROUP BY beatmap
		ORDER BY count DESC
		LIMIT $limit
		START $start;
	`, map[string]any{
		"ranked_only": rankedOnly,
		"limit":       limit,
		"start":       start,
	})
}
