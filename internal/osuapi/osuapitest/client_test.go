package osuapitest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRequester serves one canned user and counts upstream calls.
type countingRequester struct {
	osuapi.Requester
	calls int
}

func (c *countingRequester) GetUser(context.Context, string, uint32) (osuapi.UserOsu, error) {
	c.calls++
	return osuapi.UserOsu{ID: 2, Username: "peppy"}, nil
}

func TestRecordThenReplay(t *testing.T) {
	t.Chdir(t.TempDir())
	inner := &countingRequester{}
	ctx := context.Background()

	recorder, err := New(inner, "sample")
	require.NoError(t, err)

	// the second identical call replays the in-memory recording
	for range 2 {
		user, err := recorder.GetUser(ctx, "token", 2)
		require.NoError(t, err)
		assert.Equal(t, "peppy", user.Username)
	}
	assert.Equal(t, 1, inner.calls)
	require.NoError(t, recorder.Save())

	// a fresh client replays from the cache file, no requester needed
	replayer, err := New(nil, "sample")
	require.NoError(t, err)
	user, err := replayer.GetUser(ctx, "token", 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), user.ID)
}

func TestReplayFailsOnUnrecordedCall(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()

	recorder, err := New(&countingRequester{}, "sample")
	require.NoError(t, err)
	_, err = recorder.GetUser(ctx, "token", 2)
	require.NoError(t, err)
	require.NoError(t, recorder.Save())

	replayer, err := New(nil, "sample")
	require.NoError(t, err)
	_, err = replayer.GetUser(ctx, "token", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recorded response")
}

func TestRequestMultipleKeyIgnoresIDOrder(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()
	inner := &rawRequester{}

	recorder, err := New(inner, "multi")
	require.NoError(t, err)
	_, err = recorder.RequestMultiple(ctx, "https://osu.ppy.sh/api/v2/users", []uint32{3, 1, 2}, "token")
	require.NoError(t, err)
	_, err = recorder.RequestMultiple(ctx, "https://osu.ppy.sh/api/v2/users", []uint32{1, 2, 3}, "token")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

type rawRequester struct {
	osuapi.Requester
	calls int
}

func (r *rawRequester) RequestMultiple(context.Context, string, []uint32, string) ([]json.RawMessage, error) {
	r.calls++
	return []json.RawMessage{json.RawMessage(`{"id":1}`)}, nil
}
