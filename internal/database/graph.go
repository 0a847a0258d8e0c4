package database

import (
	"fmt"

	dbmodels "github.com/mapperinfluences/backend/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetGraphData reads the whole influence graph in one round trip so nodes
// and links stay consistent with each other. Nodes are users with at least
// one edge in either direction.
func (s *DB) GetGraphData() (dbmodels.GraphData, error) {
	results, err := surrealdb.Query[[]any](s.conn, `
		SELECT
			meta::id(id) as id,
			count(<-influenced_by) as mentions,
			count(->influenced_by) as influenced_by,
			avatar_url,
			username
		FROM user
		WHERE
			count(<-influenced_by) > 0
			OR count(->influenced_by) > 0;

		SELECT meta::id(in) as source, meta::id(out) as target, influence_type FROM influenced_by;
	`, nil)
	if err != nil {
		return dbmodels.GraphData{}, fmt.Errorf("database query failed: %w", err)
	}
	if results == nil || len(*results) < 2 {
		return dbmodels.GraphData{}, fmt.Errorf("graph query did not return both result sets")
	}

	var graph dbmodels.GraphData
	if err := decodeInto((*results)[0].Result, &graph.Nodes); err != nil {
		return dbmodels.GraphData{}, fmt.Errorf("failed to decode graph nodes: %w", err)
	}
	if err := decodeInto((*results)[1].Result, &graph.Links); err != nil {
		return dbmodels.GraphData{}, fmt.Errorf("failed to decode graph links: %w", err)
	}
	return graph, nil
}
