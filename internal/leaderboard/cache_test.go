package leaderboard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mapperinfluences/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n uint32) []models.LeaderboardUser {
	result := make([]models.LeaderboardUser, n)
	for i := range result {
		result[i] = models.LeaderboardUser{
			User:  models.UserSmall{ID: uint32(i + 1), Username: fmt.Sprintf("mapper %d", i+1)},
			Count: n - uint32(i),
		}
	}
	return result
}

func TestCacheFetchesOnceAndSlices(t *testing.T) {
	c := NewCache[UserKey, models.LeaderboardUser](UserWindow)
	key := UserKey{RankedOnly: true, Country: "DE"}

	fetches := 0
	fetch := func(window uint32) ([]models.LeaderboardUser, error) {
		fetches++
		assert.Equal(t, uint32(UserWindow), window)
		return rows(window), nil
	}

	first, err := c.Get(key, 0, 10, fetch)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, uint32(1), first[0].User.ID)

	second, err := c.Get(key, 10, 10, fetch)
	require.NoError(t, err)
	require.Len(t, second, 10)
	assert.Equal(t, uint32(11), second[0].User.ID)

	assert.Equal(t, 1, fetches)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewCache[UserKey, models.LeaderboardUser](UserWindow)

	fetches := 0
	fetch := func(window uint32) ([]models.LeaderboardUser, error) {
		fetches++
		return rows(window), nil
	}

	_, err := c.Get(UserKey{Country: "DE"}, 0, 1, fetch)
	require.NoError(t, err)
	_, err = c.Get(UserKey{Country: "FI"}, 0, 1, fetch)
	require.NoError(t, err)
	_, err = c.Get(UserKey{Country: "DE", RankedOnly: true}, 0, 1, fetch)
	require.NoError(t, err)

	assert.Equal(t, 3, fetches)
}

func TestCachePaginationConcatenatesToFullWindow(t *testing.T) {
	c := NewCache[UserKey, models.LeaderboardUser](UserWindow)
	key := UserKey{}

	fetch := func(window uint32) ([]models.LeaderboardUser, error) {
		return rows(window), nil
	}

	full, err := c.Get(key, 0, UserWindow, fetch)
	require.NoError(t, err)
	require.Len(t, full, UserWindow)

	const pageSize = 37
	var concatenated []models.LeaderboardUser
	for start := uint32(0); start < UserWindow; start += pageSize {
		slice, err := c.Get(key, start, pageSize, fetch)
		require.NoError(t, err)
		concatenated = append(concatenated, slice...)
	}
	assert.Equal(t, full, concatenated)
}

func TestCacheClampsOutOfRangeSlices(t *testing.T) {
	c := NewCache[bool, models.LeaderboardUser](10)

	fetch := func(window uint32) ([]models.LeaderboardUser, error) {
		return rows(window), nil
	}

	tail, err := c.Get(false, 8, 10, fetch)
	require.NoError(t, err)
	assert.Len(t, tail, 2)

	past, err := c.Get(false, 10, 10, fetch)
	require.NoError(t, err)
	assert.Empty(t, past)
	assert.NotNil(t, past)
}

func TestCachePropagatesFetchErrors(t *testing.T) {
	c := NewCache[bool, models.LeaderboardUser](10)
	wantErr := errors.New("aggregate failed")

	_, err := c.Get(true, 0, 5, func(uint32) ([]models.LeaderboardUser, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// the failure is not cached
	fetched, err := c.Get(true, 0, 5, func(window uint32) ([]models.LeaderboardUser, error) {
		return rows(window), nil
	})
	require.NoError(t, err)
	assert.Len(t, fetched, 5)
}
