package activity

import "github.com/mapperinfluences/backend/internal/models"

// maxDifferentBeatmaps is how many prior beatmap additions of the same kind
// an actor may have in the ring before further ones count as spam.
const maxDifferentBeatmaps = 2

// shouldKeep decides whether a new activity enters the ring given the
// current queue. The rules throttle repetitive edits per actor; everything
// else passes.
func shouldKeep(newActivity *models.Activity, queue []models.Activity) bool {
	switch newActivity.EventType {
	case models.EventEditBio:
		for i := range queue {
			old := &queue[i]
			if old.User.ID == newActivity.User.ID && old.EventType == models.EventEditBio {
				return false
			}
		}
		return true

	case models.EventAddUserBeatmap:
		newID := beatmapID(newActivity)
		differentIDs := 0
		for i := range queue {
			old := &queue[i]
			if old.User.ID != newActivity.User.ID || old.EventType != models.EventAddUserBeatmap {
				continue
			}
			if beatmapID(old) == newID {
				return false
			}
			differentIDs++
			if differentIDs >= maxDifferentBeatmaps {
				return false
			}
		}
		return true

	case models.EventAddInfluence, models.EventEditInfluenceDesc, models.EventEditInfluenceType:
		if newActivity.Influence == nil {
			return true
		}
		for i := range queue {
			old := &queue[i]
			if old.User.ID != newActivity.User.ID || old.Influence == nil {
				continue
			}
			switch old.EventType {
			case models.EventAddInfluence, models.EventEditInfluenceDesc, models.EventEditInfluenceType:
				if old.Influence.ID == newActivity.Influence.ID {
					return false
				}
			}
		}
		return true

	case models.EventAddInfluenceBeatmap:
		if newActivity.Influence == nil {
			return true
		}
		newID := beatmapID(newActivity)
		differentIDs := 0
		for i := range queue {
			old := &queue[i]
			if old.User.ID != newActivity.User.ID ||
				old.EventType != models.EventAddInfluenceBeatmap ||
				old.Influence == nil ||
				old.Influence.ID != newActivity.Influence.ID {
				continue
			}
			if beatmapID(old) != newID {
				differentIDs++
				if differentIDs >= maxDifferentBeatmaps {
					return false
				}
			}
		}
		return true
	}
	return true
}

// beatmapID reads the referenced beatmap id in either reference shape.
func beatmapID(activity *models.Activity) uint32 {
	if activity.Beatmap == nil {
		return 0
	}
	return activity.Beatmap.GetID()
}
