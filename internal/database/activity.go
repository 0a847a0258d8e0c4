package database

import (
	"context"
	"errors"
	"fmt"

	apperror "github.com/mapperinfluences/backend/internal/errors"
	dbmodels "github.com/mapperinfluences/backend/internal/models"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// activityProjection shapes an activity row for the feed: actor and optional
// influence target inlined, variant fields left as stored.
const activityProjection = `
	meta::id(id) as id,
	created_at,
	event_type,
	meta::id(user) as user.id,
	user.username as user.username,
	user.avatar_url as user.avatar_url,
	user.country_code as user.country_code,
	user.country_name as user.country_name,
	user.groups as user.groups,
	user.ranked_and_approved_beatmapset_count
		+ user.guest_beatmapset_count as user.ranked_maps,
	count(user<-influenced_by) as user.mentions,
	user.previous_usernames as user.previous_usernames,
	IF influence != NONE THEN {
		id: meta::id(influence),
		username: influence.username,
		avatar_url: influence.avatar_url,
		country_code: influence.country_code,
		country_name: influence.country_name,
		groups: influence.groups,
		ranked_maps: influence.ranked_and_approved_beatmapset_count
			+ influence.guest_beatmapset_count,
		mentions: count(influence<-influenced_by),
		previous_usernames: influence.previous_usernames
	} ELSE NONE END as influence,
	beatmap,
	description,
	influence_type,
	bio
`

// activityRow is the decode target for activity queries. SurrealDB datetimes
// need the driver's wrapper type.
type activityRow struct {
	dbmodels.Activity
	CreatedAt models.CustomDateTime `json:"created_at"`
}

func (r activityRow) toActivity() dbmodels.Activity {
	activity := r.Activity
	activity.CreatedAt = r.CreatedAt.Time
	return activity
}

// ActivityDetails carries the variant payload of a new activity record.
type ActivityDetails struct {
	Influence     *uint32
	Beatmap       *uint32
	Description   *string
	InfluenceType *uint8
	Bio           *string
}

// AddActivity appends one activity record with "now" as its timestamp.
func (s *DB) AddActivity(userID uint32, event dbmodels.EventType, details ActivityDetails) error {
	var influence any
	if details.Influence != nil {
		influence = numericalThing("user", *details.Influence)
	}
	return s.exec(`
		CREATE activity
		SET
			user = $user,
			created_at = time::now(),
			event_type = $event_type,
			influence = $influence,
			beatmap = $beatmap,
			description = $description,
			influence_type = $influence_type,
			bio = $bio;
	`, map[string]any{
		"user":           numericalThing("user", userID),
		"event_type":     string(event),
		"influence":      influence,
		"beatmap":        details.Beatmap,
		"description":    details.Description,
		"influence_type": details.InfluenceType,
		"bio":            details.Bio,
	})
}

// AddLoginActivity appends a LOGIN activity.
func (s *DB) AddLoginActivity(userID uint32) error {
	return s.AddActivity(userID, dbmodels.EventLogin, ActivityDetails{})
}

// GetActivities pages the feed in descending chronological order.
func (s *DB) GetActivities(limit, start uint32) ([]dbmodels.Activity, error) {
	rows, err := querySlice[activityRow](s, `
		SELECT `+activityProjection+`
		FROM activity
		ORDER BY created_at DESC
		START $start
		LIMIT $limit;
	`, map[string]any{
		"limit": limit,
		"start": start,
	})
	if err != nil {
		return nil, err
	}

	activities := make([]dbmodels.Activity, len(rows))
	for i, row := range rows {
		activities[i] = row.toActivity()
	}
	return activities, nil
}

// GetActivity reads one activity row by its record id.
func (s *DB) GetActivity(activityID string) (dbmodels.Activity, error) {
	row, found, err := queryOne[activityRow](s,
		"SELECT "+activityProjection+" FROM type::thing(\"activity\", $id);",
		map[string]any{"id": activityID},
	)
	if err != nil {
		return dbmodels.Activity{}, err
	}
	if !found {
		return dbmodels.Activity{}, apperror.Internalf("activity %s vanished before it could be read", activityID)
	}
	return row.toActivity(), nil
}

// StreamAction is the kind of change a live notification reports.
type StreamAction string

const (
	StreamCreate StreamAction = "CREATE"
	StreamUpdate StreamAction = "UPDATE"
	StreamDelete StreamAction = "DELETE"
)

// ActivityNotification is one change observed on the activity table. The
// full record is only fetched for creates.
type ActivityNotification struct {
	Action   StreamAction
	ID       string
	Activity *dbmodels.Activity
}

// StreamEvent is what the stream goroutine hands to Next.
type StreamEvent struct {
	Notification *ActivityNotification
	Err          error
}

var (
	// ErrStreamClosed reports that the live query channel was closed, which
	// happens when the database connection drops.
	ErrStreamClosed = errors.New("activity stream closed")

	// ErrStreamSerialization reports a notification payload that could not
	// be decoded. Known to happen for manually deleted records.
	ErrStreamSerialization = errors.New("activity notification could not be decoded")
)

// ActivityStream is a live subscription to the activity table.
type ActivityStream struct {
	events <-chan StreamEvent
	kill   func() error
}

// NewActivityStream builds a stream over a ready event channel. Exposed so
// tests can drive the consumer without a database.
func NewActivityStream(events <-chan StreamEvent) *ActivityStream {
	return &ActivityStream{events: events, kill: func() error { return nil }}
}

// Next blocks until the next notification, the stream closes or the context
// ends.
func (st *ActivityStream) Next(ctx context.Context) (*ActivityNotification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-st.events:
		if !ok {
			return nil, ErrStreamClosed
		}
		if event.Err != nil {
			return nil, event.Err
		}
		return event.Notification, nil
	}
}

// Close kills the live query.
func (st *ActivityStream) Close() error {
	return st.kill()
}

// StartActivityStream opens a live query on the activity table. Create
// notifications are resolved to full feed records before they are handed
// out.
func (s *DB) StartActivityStream() (*ActivityStream, error) {
	results, err := surrealdb.Query[models.UUID](s.conn, "LIVE SELECT * FROM activity;", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start live query: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, fmt.Errorf("live query returned no result sets")
	}
	liveID := (*results)[0].Result

	notifications, err := s.conn.LiveNotifications(liveID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to live query: %w", err)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		for notification := range notifications {
			events <- s.streamEvent(notification)
		}
	}()

	return &ActivityStream{
		events: events,
		kill:   func() error { return surrealdb.Kill(s.conn, liveID.String()) },
	}, nil
}

func (s *DB) streamEvent(notification connection.Notification) StreamEvent {
	var action StreamAction
	switch notification.Action {
	case connection.CreateAction:
		action = StreamCreate
	case connection.UpdateAction:
		action = StreamUpdate
	case connection.DeleteAction:
		action = StreamDelete
	default:
		return StreamEvent{Err: fmt.Errorf("%w: unknown action %q", ErrStreamSerialization, notification.Action)}
	}

	recordID, ok := notificationRecordID(notification.Result)
	if !ok {
		return StreamEvent{Err: fmt.Errorf("%w: action %s", ErrStreamSerialization, action)}
	}

	event := &ActivityNotification{Action: action, ID: recordID}
	if action == StreamCreate {
		activity, err := s.GetActivity(recordID)
		if err != nil {
			return StreamEvent{Err: fmt.Errorf("failed to read created activity %s: %w", recordID, err)}
		}
		event.Activity = &activity
	}
	return StreamEvent{Notification: event}
}

// notificationRecordID digs the bare record id out of a raw notification
// payload.
func notificationRecordID(result any) (string, bool) {
	payload, ok := result.(map[string]any)
	if !ok {
		return "", false
	}
	switch id := payload["id"].(type) {
	case models.RecordID:
		return fmt.Sprint(id.ID), true
	case *models.RecordID:
		if id == nil {
			return "", false
		}
		return fmt.Sprint(id.ID), true
	default:
		return "", false
	}
}
