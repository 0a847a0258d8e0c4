package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/models"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	activities []models.Activity
	events     chan database.StreamEvent
}

func newFakeDB(activities ...models.Activity) *fakeDB {
	return &fakeDB{
		activities: activities,
		events:     make(chan database.StreamEvent, 16),
	}
}

func (f *fakeDB) GetActivities(limit, start uint32) ([]models.Activity, error) {
	if int(start) >= len(f.activities) {
		return nil, nil
	}
	end := min(int(start+limit), len(f.activities))
	return f.activities[start:end], nil
}

func (f *fakeDB) StartActivityStream() (*database.ActivityStream, error) {
	return database.NewActivityStream(f.events), nil
}

func (f *fakeDB) emit(activity models.Activity) {
	f.events <- database.StreamEvent{Notification: &database.ActivityNotification{
		Action:   database.StreamCreate,
		ID:       activity.ID,
		Activity: &activity,
	}}
}

type fakeBeatmaps struct {
	mu    sync.Mutex
	calls [][]uint32
}

func (f *fakeBeatmaps) GetBeatmapsWithUser(_ context.Context, ids []uint32, _ string) (map[uint32]osuapi.OsuBeatmapSmall, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ids)
	f.mu.Unlock()

	cards := make(map[uint32]osuapi.OsuBeatmapSmall, len(ids))
	for _, id := range ids {
		cards[id] = osuapi.OsuBeatmapSmall{ID: id, Title: fmt.Sprintf("map %d", id)}
	}
	return cards, nil
}

func (f *fakeBeatmaps) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTokens struct{}

func (fakeTokens) GetAccessToken(context.Context) (string, error) {
	return "grant-token", nil
}

func receive(t *testing.T, messages <-chan string) string {
	t.Helper()
	select {
	case message := <-messages:
		return message
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return ""
	}
}

func TestInitialBackfillFillsRingAndEnriches(t *testing.T) {
	db := newFakeDB(
		login(1),
		addUserBeatmap(2, 100),
		login(3),
		login(4),
	)
	beatmaps := &fakeBeatmaps{}

	tracker, err := NewTracker(context.Background(), db, beatmaps, fakeTokens{}, 3)
	require.NoError(t, err)

	queue := tracker.CurrentQueue()
	require.Len(t, queue, 3)
	assert.Equal(t, models.EventLogin, queue[0].EventType)

	// one bulk call for the single referenced beatmap
	assert.Equal(t, 1, beatmaps.callCount())
	require.NotNil(t, queue[1].Beatmap)
	require.True(t, queue[1].Beatmap.Enriched())
	assert.Equal(t, "map 100", queue[1].Beatmap.Beatmap.Title)
}

func TestInitialBackfillSkipsBulkFetchWithoutBeatmaps(t *testing.T) {
	db := newFakeDB(login(1), login(2))
	beatmaps := &fakeBeatmaps{}

	tracker, err := NewTracker(context.Background(), db, beatmaps, fakeTokens{}, 3)
	require.NoError(t, err)

	assert.Len(t, tracker.CurrentQueue(), 2)
	assert.Equal(t, 0, beatmaps.callCount())
}

func TestInitialBackfillAppliesSpamFilter(t *testing.T) {
	db := newFakeDB(
		editBio(1, "first"),
		editBio(1, "second"),
		login(2),
	)

	tracker, err := NewTracker(context.Background(), db, &fakeBeatmaps{}, fakeTokens{}, 3)
	require.NoError(t, err)

	queue := tracker.CurrentQueue()
	require.Len(t, queue, 2)
	assert.Equal(t, models.EventEditBio, queue[0].EventType)
	assert.Equal(t, models.EventLogin, queue[1].EventType)
}

func TestRingCapacityAndSubscriberSnapshot(t *testing.T) {
	db := newFakeDB()
	tracker, err := NewTracker(context.Background(), db, &fakeBeatmaps{}, fakeTokens{}, 3)
	require.NoError(t, err)

	_, messages, cancel, err := tracker.NewConnection()
	require.NoError(t, err)
	defer cancel()

	for i := uint32(1); i <= 4; i++ {
		activity := login(i)
		activity.ID = fmt.Sprintf("activity-%d", i)
		db.emit(activity)
	}
	for range 4 {
		receive(t, messages)
	}

	queue := tracker.CurrentQueue()
	require.Len(t, queue, 3)
	assert.Equal(t, "activity-2", queue[0].ID)
	assert.Equal(t, "activity-4", queue[2].ID)

	snapshot, _, cancelSecond, err := tracker.NewConnection()
	require.NoError(t, err)
	defer cancelSecond()

	expected, err := json.Marshal(queue)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), snapshot)
}

func TestStreamedActivityIsEnrichedBeforeBroadcast(t *testing.T) {
	db := newFakeDB()
	tracker, err := NewTracker(context.Background(), db, &fakeBeatmaps{}, fakeTokens{}, 3)
	require.NoError(t, err)

	_, messages, cancel, err := tracker.NewConnection()
	require.NoError(t, err)
	defer cancel()

	db.emit(addUserBeatmap(1, 131891))
	payload := receive(t, messages)

	var decoded models.Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	require.NotNil(t, decoded.Beatmap)
	require.True(t, decoded.Beatmap.Enriched())
	assert.Equal(t, "map 131891", decoded.Beatmap.Beatmap.Title)
}

func TestStreamSkipsRejectedAndNonCreateNotifications(t *testing.T) {
	db := newFakeDB(editBio(1, "seed"))
	tracker, err := NewTracker(context.Background(), db, &fakeBeatmaps{}, fakeTokens{}, 3)
	require.NoError(t, err)

	_, messages, cancel, err := tracker.NewConnection()
	require.NoError(t, err)
	defer cancel()

	// spam-filtered repeat, then update and delete notifications
	db.emit(editBio(1, "again"))
	db.events <- database.StreamEvent{Notification: &database.ActivityNotification{
		Action: database.StreamUpdate,
		ID:     "activity-x",
	}}
	db.events <- database.StreamEvent{Notification: &database.ActivityNotification{
		Action: database.StreamDelete,
		ID:     "activity-x",
	}}
	db.events <- database.StreamEvent{Err: database.ErrStreamSerialization}

	// a clean login must still get through after all of the above
	db.emit(login(2))
	payload := receive(t, messages)

	var decoded models.Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, models.EventLogin, decoded.EventType)
	assert.Len(t, tracker.CurrentQueue(), 2)
}

func TestBroadcasterDropsOnFullBuffer(t *testing.T) {
	broadcaster := NewBroadcaster()
	messages, cancel := broadcaster.Subscribe()
	defer cancel()

	for i := range subscriberBuffer + 10 {
		broadcaster.Send(fmt.Sprintf("message %d", i))
	}

	// the buffer holds the first 50, the overflow is dropped
	assert.Len(t, messages, subscriberBuffer)
	first := <-messages
	assert.Equal(t, "message 0", first)
}

func TestBroadcasterReceiverCount(t *testing.T) {
	broadcaster := NewBroadcaster()
	assert.Equal(t, 0, broadcaster.Send("nobody listening"))

	_, cancelFirst := broadcaster.Subscribe()
	_, cancelSecond := broadcaster.Subscribe()
	assert.Equal(t, 2, broadcaster.Send("hello"))

	cancelFirst()
	assert.Equal(t, 1, broadcaster.Send("hello again"))
	cancelSecond()
}
