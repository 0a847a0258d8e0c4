// Package database is the typed surface over SurrealDB: user records,
// influence edges, activities with their live stream, and the aggregate
// queries behind the leaderboards and the graph.
package database

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// DB wraps the SurrealDB connection.
type DB struct {
	conn *surrealdb.DB
}

// Connect dials SurrealDB over its WebSocket protocol and signs in as root.
// The URL must carry a ws:// or wss:// scheme.
func Connect(url, username, password string) (*DB, error) {
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return nil, fmt.Errorf("database url %q must start with ws:// or wss://", url)
	}

	conn, err := surrealdb.New(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := conn.SignIn(&surrealdb.Auth{Username: username, Password: password}); err != nil {
		return nil, fmt.Errorf("failed to sign in to database: %w", err)
	}
	if err := conn.Use("test", "test"); err != nil {
		return nil, fmt.Errorf("failed to select namespace: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close tears down the connection.
func (s *DB) Close() error {
	return s.conn.Close()
}

// numericalThing builds a record pointer like user:873961.
func numericalThing(table string, id uint32) models.RecordID {
	return models.NewRecordID(table, int(id))
}

// querySlice runs a query and returns the rows of its last statement.
func querySlice[T any](s *DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](s.conn, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, fmt.Errorf("database query returned no result sets")
	}
	return (*results)[len(*results)-1].Result, nil
}

// queryOne runs a query and returns the first row of its last statement.
func queryOne[T any](s *DB, sql string, vars map[string]any) (T, bool, error) {
	var zero T
	rows, err := querySlice[T](s, sql, vars)
	if err != nil {
		return zero, false, err
	}
	if len(rows) == 0 {
		return zero, false, nil
	}
	return rows[0], true, nil
}

// exec runs a statement whose rows we do not care about.
func (s *DB) exec(sql string, vars map[string]any) error {
	if _, err := surrealdb.Query[any](s.conn, sql, vars); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// decodeInto remarshals a loosely typed value into a concrete one. Used for
// live notification payloads, which arrive as plain maps.
func decodeInto(value any, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
