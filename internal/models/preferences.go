package models

// ActivityPreferences controls which of a user's actions are persisted to
// the activity feed.
type ActivityPreferences struct {
	Login                  bool `json:"login"`
	AddInfluence           bool `json:"add_influence"`
	RemoveInfluence        bool `json:"remove_influence"`
	AddUserBeatmap         bool `json:"add_user_beatmap"`
	RemoveUserBeatmap      bool `json:"remove_user_beatmap"`
	AddInfluenceBeatmap    bool `json:"add_influence_beatmap"`
	RemoveInfluenceBeatmap bool `json:"remove_influence_beatmap"`
	EditInfluenceDesc      bool `json:"edit_influence_desc"`
	EditInfluenceType      bool `json:"edit_influence_type"`
	EditBio                bool `json:"edit_bio"`
}

// DefaultActivityPreferences is what users get before they touch the
// settings: additive events are public, logins and removals are not.
func DefaultActivityPreferences() ActivityPreferences {
	return ActivityPreferences{
		AddInfluence:        true,
		AddUserBeatmap:      true,
		AddInfluenceBeatmap: true,
		EditInfluenceDesc:   true,
		EditInfluenceType:   true,
		EditBio:             true,
	}
}

// Allows reports whether the given event kind should be recorded.
func (p ActivityPreferences) Allows(event EventType) bool {
	switch event {
	case EventLogin:
		return p.Login
	case EventAddInfluence:
		return p.AddInfluence
	case EventRemoveInfluence:
		return p.RemoveInfluence
	case EventAddUserBeatmap:
		return p.AddUserBeatmap
	case EventRemoveUserBeatmap:
		return p.RemoveUserBeatmap
	case EventAddInfluenceBeatmap:
		return p.AddInfluenceBeatmap
	case EventRemoveInfluenceBeatmap:
		return p.RemoveInfluenceBeatmap
	case EventEditInfluenceDesc:
		return p.EditInfluenceDesc
	case EventEditInfluenceType:
		return p.EditInfluenceType
	case EventEditBio:
		return p.EditBio
	}
	return false
}
