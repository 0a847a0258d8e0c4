package dailyupdate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", filepath.Join("testdata", "dailyupdate_test.log"))
	m.Run()
}

type stubSource struct {
	failing map[uint32]bool
	fetched []uint32
}

func (s *stubSource) GetUser(_ context.Context, userID uint32) (osuapi.UserOsu, error) {
	s.fetched = append(s.fetched, userID)
	if s.failing[userID] {
		return osuapi.UserOsu{}, errors.New("upstream error")
	}
	return osuapi.UserOsu{ID: userID, Username: "refreshed"}, nil
}

type stubDB struct {
	users     []uint32
	upserted  []uint32
	upsertErr map[uint32]bool
}

func (s *stubDB) GetUsersToUpdate() ([]uint32, error) {
	return s.users, nil
}

func (s *stubDB) UpsertUser(user osuapi.UserOsu, authenticated bool) error {
	if authenticated {
		return errors.New("refresh must not claim authentication")
	}
	if s.upsertErr[user.ID] {
		return errors.New("db error")
	}
	s.upserted = append(s.upserted, user.ID)
	return nil
}

func TestUpdateOnceRefreshesEveryUser(t *testing.T) {
	source := &stubSource{}
	db := &stubDB{}

	UpdateOnce(context.Background(), source, db, []uint32{1, 2, 3}, time.Millisecond)

	assert.Equal(t, []uint32{1, 2, 3}, source.fetched)
	assert.Equal(t, []uint32{1, 2, 3}, db.upserted)
}

func TestUpdateOnceSkipsIndividualFailures(t *testing.T) {
	source := &stubSource{failing: map[uint32]bool{2: true}}
	db := &stubDB{upsertErr: map[uint32]bool{3: true}}

	UpdateOnce(context.Background(), source, db, []uint32{1, 2, 3, 4}, time.Millisecond)

	assert.Equal(t, []uint32{1, 2, 3, 4}, source.fetched)
	assert.Equal(t, []uint32{1, 4}, db.upserted)
}

func TestUpdateOnceStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &stubSource{}
	db := &stubDB{}
	UpdateOnce(ctx, source, db, []uint32{1, 2, 3}, time.Millisecond)

	assert.Empty(t, source.fetched)
}

func TestUpdateOnceNoUsersIsANoop(t *testing.T) {
	source := &stubSource{}
	db := &stubDB{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		UpdateOnce(context.Background(), source, db, nil, time.Hour)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("UpdateOnce blocked on an empty user list")
	}
	assert.Empty(t, source.fetched)
}
