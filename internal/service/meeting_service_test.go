package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository"
)

func newMeetingService() *MeetingService {
	return NewMeetingService(repository.NewInMemoryMeetingRepository(), nil, time.Hour)
}

func TestEnsureRoomFirstArrivalBecomesHost(t *testing.T) {
	ctx := context.Background()
	svc := newMeetingService()

	meeting, role, err := svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, role)
	assert.Equal(t, "uidA", meeting.HostID)

	_, role, err = svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidB")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, role)
}

func TestEnsureRoomHostReloadResolvesFromStoredHost(t *testing.T) {
	ctx := context.Background()
	svc := newMeetingService()

	_, role, err := svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidA")
	require.NoError(t, err)
	require.Equal(t, domain.RoleHost, role)

	// Page reload: the same user ensures again and the role comes from the
	// persisted host id, not from arrival order.
	meeting, role, err := svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, role)
	assert.Equal(t, "uidA", meeting.HostID)
}

func TestEnsureRoomGeneratesServerIssuedID(t *testing.T) {
	ctx := context.Background()
	svc := newMeetingService()

	meeting, role, err := svc.EnsureRoom(ctx, "", "uidA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, role)
	assert.True(t, domain.ValidRoomID(meeting.RoomID))
}

func TestEnsureRoomRejectsMalformedID(t *testing.T) {
	svc := newMeetingService()

	_, _, err := svc.EnsureRoom(context.Background(), "not a room id", "uidA")
	assert.ErrorIs(t, err, ErrInvalidRoomID)
}

func TestEnsureRoomRequiresUser(t *testing.T) {
	svc := newMeetingService()

	_, _, err := svc.EnsureRoom(context.Background(), "abcd-efgh-ijkl", "")
	assert.Error(t, err)
}

func TestEndMeetingMarksEnded(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryMeetingRepository()
	svc := NewMeetingService(repo, nil, time.Hour)

	_, _, err := svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidA")
	require.NoError(t, err)

	require.NoError(t, svc.EndMeeting(ctx, "abcd-efgh-ijkl"))

	meeting, err := repo.GetByID(ctx, "abcd-efgh-ijkl")
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusEnded, meeting.Status)

	// Ending a room that never existed is not an error.
	assert.NoError(t, svc.EndMeeting(ctx, "zzzz-zzzz-zzzz"))
}

func TestReapExpiredCollectsEndedMeetings(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryMeetingRepository()
	svc := NewMeetingService(repo, nil, time.Hour)

	_, _, err := svc.EnsureRoom(ctx, "abcd-efgh-ijkl", "uidA")
	require.NoError(t, err)
	_, _, err = svc.EnsureRoom(ctx, "mnop-qrst-uvwx", "uidA")
	require.NoError(t, err)

	require.NoError(t, svc.EndMeeting(ctx, "abcd-efgh-ijkl"))

	removed, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = repo.GetByID(ctx, "abcd-efgh-ijkl")
	assert.ErrorIs(t, err, repository.ErrMeetingNotFound)
	_, err = repo.GetByID(ctx, "mnop-qrst-uvwx")
	assert.NoError(t, err)
}
