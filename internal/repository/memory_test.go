package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/meet/internal/domain"
)

func TestInMemoryMeetingRepositoryCreateConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryMeetingRepository()

	first := domain.NewMeeting("abcd-efgh-ijkl", "uidA", 0)
	require.NoError(t, repo.Create(ctx, first))

	second := domain.NewMeeting("abcd-efgh-ijkl", "uidB", 0)
	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, ErrMeetingExists)

	stored, err := repo.GetByID(ctx, "abcd-efgh-ijkl")
	require.NoError(t, err)
	assert.Equal(t, "uidA", stored.HostID, "the loser must not overwrite the host")
}

func TestInMemoryMeetingRepositoryCreateRace(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryMeetingRepository()

	const arrivals = 16
	var wg sync.WaitGroup
	errs := make([]error, arrivals)
	for i := 0; i < arrivals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, domain.NewMeeting("abcd-efgh-ijkl", "uid", 0))
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			require.ErrorIs(t, err, ErrMeetingExists)
		}
	}
	assert.Equal(t, 1, created, "exactly one first-arrival wins")
}

func TestInMemoryMeetingRepositoryGetByIDNotFound(t *testing.T) {
	repo := NewInMemoryMeetingRepository()

	_, err := repo.GetByID(context.Background(), "miss-miss-miss")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestInMemoryMeetingRepositorySetStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryMeetingRepository()
	require.NoError(t, repo.Create(ctx, domain.NewMeeting("abcd-efgh-ijkl", "uidA", 0)))

	require.NoError(t, repo.SetStatus(ctx, "abcd-efgh-ijkl", domain.MeetingStatusEnded))

	stored, err := repo.GetByID(ctx, "abcd-efgh-ijkl")
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusEnded, stored.Status)
	assert.False(t, stored.EndedAt.IsZero())

	assert.ErrorIs(t, repo.SetStatus(ctx, "miss-miss-miss", domain.MeetingStatusEnded), ErrMeetingNotFound)
}

func TestInMemoryMeetingRepositoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryMeetingRepository()

	live := domain.NewMeeting("aaaa-aaaa-aaaa", "uidA", time.Hour)
	require.NoError(t, repo.Create(ctx, live))

	expired := domain.NewMeeting("bbbb-bbbb-bbbb", "uidA", time.Hour)
	expired.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, expired))

	ended := domain.NewMeeting("cccc-cccc-cccc", "uidA", 0)
	require.NoError(t, repo.Create(ctx, ended))
	require.NoError(t, repo.SetStatus(ctx, "cccc-cccc-cccc", domain.MeetingStatusEnded))

	removed, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	remaining, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "aaaa-aaaa-aaaa", remaining[0].RoomID)
}

func TestInMemoryMeetingRepositoryCanceledContext(t *testing.T) {
	repo := NewInMemoryMeetingRepository()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, repo.Create(ctx, domain.NewMeeting("abcd-efgh-ijkl", "uidA", 0)))
	_, err := repo.GetByID(ctx, "abcd-efgh-ijkl")
	assert.Error(t, err)
}
