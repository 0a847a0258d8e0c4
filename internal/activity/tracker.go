// Package activity keeps the live feed: a bounded ring of recent activities
// seeded from the database, enriched with beatmap cards, fed by the
// database's live query and fanned out to WebSocket subscribers.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/metrics"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/mapperinfluences/backend/internal/retry"
	"go.uber.org/zap"
)

// QueueSize is the ring capacity of the production tracker.
const QueueSize = 50

const streamRetryCooldown = 60

// Database is the slice of the database facade the tracker needs.
type Database interface {
	GetActivities(limit, start uint32) ([]models.Activity, error)
	StartActivityStream() (*database.ActivityStream, error)
}

// BeatmapProvider enriches bare beatmap ids into full cards.
type BeatmapProvider interface {
	GetBeatmapsWithUser(ctx context.Context, ids []uint32, accessToken string) (map[uint32]osuapi.OsuBeatmapSmall, error)
}

// TokenProvider hands out the system-level upstream token.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// Tracker owns the ring and the broadcast fan-out.
type Tracker struct {
	db          Database
	beatmaps    BeatmapProvider
	tokens      TokenProvider
	broadcaster *Broadcaster

	queueSize int
	mu        sync.Mutex
	queue     []models.Activity
}

// NewTracker seeds the ring from stored activities, enriches their beatmap
// references and spawns the live stream consumer.
func NewTracker(ctx context.Context, db Database, beatmaps BeatmapProvider, tokens TokenProvider, queueSize int) (*Tracker, error) {
	t := &Tracker{
		db:          db,
		beatmaps:    beatmaps,
		tokens:      tokens,
		broadcaster: NewBroadcaster(),
		queueSize:   queueSize,
		queue:       make([]models.Activity, 0, queueSize),
	}

	if err := t.setInitialActivities(); err != nil {
		return nil, err
	}
	if err := t.swapBeatmaps(ctx); err != nil {
		return nil, err
	}
	go t.streamLoop(ctx)
	return t, nil
}

// setInitialActivities pages through stored activities newest first, keeping
// what passes the spam filter until the ring is full or history runs out.
func (t *Tracker) setInitialActivities() error {
	step := uint32(t.queueSize * 2)
outer:
	for offset := uint32(0); ; offset += step {
		chunk, err := t.db.GetActivities(step, offset)
		if err != nil {
			return err
		}
		for _, activity := range chunk {
			if shouldKeep(&activity, t.queue) {
				t.queue = append(t.queue, activity)
			}
			if len(t.queue) >= t.queueSize {
				break outer
			}
		}
		// a short page means history is exhausted
		if uint32(len(chunk)) < step {
			break
		}
	}
	return nil
}

// swapBeatmaps bulk-enriches every bare beatmap reference in the ring.
func (t *Tracker) swapBeatmaps(ctx context.Context) error {
	var ids []uint32
	for i := range t.queue {
		if id, ok := t.queue[i].BeatmapID(); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	token, err := t.tokens.GetAccessToken(ctx)
	if err != nil {
		return err
	}
	cards, err := t.beatmaps.GetBeatmapsWithUser(ctx, ids, token)
	if err != nil {
		return err
	}

	for i := range t.queue {
		id, ok := t.queue[i].BeatmapID()
		if !ok {
			continue
		}
		// no removal from the map, the same beatmap can appear twice
		if card, ok := cards[id]; ok {
			t.queue[i].SwapBeatmap(card)
		}
	}
	return nil
}

func (t *Tracker) openStream(ctx context.Context) (*database.ActivityStream, error) {
	return retry.UntilSuccess(ctx, streamRetryCooldown, "Failed to open activity stream", func() (*database.ActivityStream, error) {
		return t.db.StartActivityStream()
	})
}

// streamLoop consumes live notifications for the process lifetime,
// reconnecting whenever the stream breaks.
func (t *Tracker) streamLoop(ctx context.Context) {
	stream, err := t.openStream(ctx)
	if err != nil {
		return
	}

	for {
		notification, err := stream.Next(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			_ = stream.Close()
			return
		case errors.Is(err, database.ErrStreamSerialization):
			logger.Log.Debug("Skipping undecodable activity notification", zap.Error(err))
			continue
		case err != nil:
			logger.Log.Error("Activity stream failed, reconnecting", zap.Error(err))
			_ = stream.Close()
			stream, err = t.openStream(ctx)
			if err != nil {
				return
			}
			continue
		}

		if notification.Action != database.StreamCreate {
			logger.Log.Debug("Skipping activity notification",
				zap.String("action", string(notification.Action)),
				zap.String("activity_id", notification.ID))
			continue
		}
		t.handleNewActivity(ctx, *notification.Activity)
	}
}

func (t *Tracker) handleNewActivity(ctx context.Context, newActivity models.Activity) {
	t.mu.Lock()
	keep := shouldKeep(&newActivity, t.queue)
	t.mu.Unlock()
	if !keep {
		return
	}

	if id, ok := newActivity.BeatmapID(); ok {
		token, err := t.tokens.GetAccessToken(ctx)
		if err != nil {
			logger.Log.Error("Failed to get access token for activity enrichment",
				zap.String("activity_id", newActivity.ID), zap.Error(err))
			return
		}
		cards, err := t.beatmaps.GetBeatmapsWithUser(ctx, []uint32{id}, token)
		if err != nil {
			logger.Log.Error("Failed to request beatmap for activity",
				zap.String("activity_id", newActivity.ID), zap.Error(err))
			return
		}
		card, ok := cards[id]
		if !ok {
			logger.Log.Error("Upstream knows no beatmap for activity",
				zap.String("activity_id", newActivity.ID), zap.Uint32("beatmap_id", id))
			return
		}
		newActivity.SwapBeatmap(card)
	}

	payload, err := json.Marshal(newActivity)
	if err != nil {
		logger.Log.Error("Failed to serialize activity",
			zap.String("activity_id", newActivity.ID), zap.Error(err))
		return
	}

	t.push(newActivity)
	receivers := t.broadcaster.Send(string(payload))
	metrics.Get().ActivitiesBroadcast.Inc()
	logger.Log.Info("Sending new activity",
		zap.String("activity_id", newActivity.ID),
		zap.Int("receivers", receivers))
}

// push appends to the ring, evicting the oldest entry when over capacity.
func (t *Tracker) push(activity models.Activity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue = append(t.queue, activity)
	if len(t.queue) > t.queueSize {
		t.queue = t.queue[1:]
	}
}

// CurrentQueue returns a copy of the ring.
func (t *Tracker) CurrentQueue() []models.Activity {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := make([]models.Activity, len(t.queue))
	copy(queue, t.queue)
	return queue
}

// NewConnection snapshots the ring for a new WebSocket subscriber and
// registers it with the broadcaster.
func (t *Tracker) NewConnection() (string, <-chan string, func(), error) {
	t.mu.Lock()
	snapshot, err := json.Marshal(t.queue)
	t.mu.Unlock()
	if err != nil {
		return "", nil, nil, err
	}

	messages, cancel := t.broadcaster.Subscribe()
	return string(snapshot), messages, cancel, nil
}
