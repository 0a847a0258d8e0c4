package models

// GraphUser is a node of the full influence graph: any user with at least
// one edge in either direction.
type GraphUser struct {
	ID           uint32 `json:"id"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatar_url"`
	Mentions     uint32 `json:"mentions"`
	InfluencedBy uint32 `json:"influenced_by"`
}

// GraphInfluence is one directed edge between two nodes.
type GraphInfluence struct {
	Source        uint32 `json:"source"`
	Target        uint32 `json:"target"`
	InfluenceType uint8  `json:"influence_type"`
}

// GraphData is the one-shot aggregate served by the graph endpoint.
type GraphData struct {
	Nodes []GraphUser      `json:"nodes"`
	Links []GraphInfluence `json:"links"`
}
