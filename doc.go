// Package backend provides the Mapper Influences API server.

// This module contains the server entry points under cmd/ and the actual
// implementation under internal/:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Domain records and their wire shapes
// - internal/auth: JWT session issuance and verification
// - internal/osuapi: osu! API client, batching and token management
// - internal/database: SurrealDB facade for users, influences and activities
// - internal/activity: Live activity feed ring and broadcasting
// - internal/websocket: WebSocket feed connections
// - internal/leaderboard, internal/graph: Cached public aggregates
// - internal/dailyupdate: Paced daily profile refresh
// - internal/middleware: Request id, logging and metrics middleware
// - internal/seed: Development database seeding

// See the individual package documentation for detailed API reference.
package backend
