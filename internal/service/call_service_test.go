package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/internal/signal"
)

func newCallService() (*CallService, *signal.InMemoryStore, *repository.InMemoryMeetingRepository) {
	store := signal.NewInMemoryStore()
	repo := repository.NewInMemoryMeetingRepository()
	return NewCallService(store, repo, nil), store, repo
}

func TestWriteAnswerRequiresOffer(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCallService()

	answer := domain.SessionDescription{Type: domain.SDPTypeAnswer, SDP: "v=0 answer"}

	// No negotiation record at all.
	err := svc.WriteAnswer(ctx, "abcd-efgh-ijkl", answer)
	assert.ErrorIs(t, err, signal.ErrNoOffer)

	// Record exists but carries no offer yet.
	require.NoError(t, svc.AddCandidate(ctx, "abcd-efgh-ijkl", domain.SideOffer, domain.Candidate{Candidate: "candidate:1"}))
	err = svc.WriteAnswer(ctx, "abcd-efgh-ijkl", answer)
	assert.ErrorIs(t, err, signal.ErrNoOffer)

	// Once the offer is in, the answer goes through.
	require.NoError(t, svc.WriteOffer(ctx, "abcd-efgh-ijkl", domain.SessionDescription{Type: domain.SDPTypeOffer, SDP: "v=0 offer"}))
	require.NoError(t, svc.WriteAnswer(ctx, "abcd-efgh-ijkl", answer))

	callRecord, err := svc.GetCall(ctx, "abcd-efgh-ijkl")
	require.NoError(t, err)
	require.NotNil(t, callRecord.Answer)
	assert.Equal(t, answer, *callRecord.Answer)
}

func TestWriteOfferRejectsWrongType(t *testing.T) {
	svc, _, _ := newCallService()

	err := svc.WriteOffer(context.Background(), "abcd-efgh-ijkl", domain.SessionDescription{Type: domain.SDPTypeAnswer, SDP: "v=0"})
	assert.Error(t, err)

	err = svc.WriteOffer(context.Background(), "abcd-efgh-ijkl", domain.SessionDescription{Type: domain.SDPTypeOffer})
	assert.Error(t, err, "empty SDP must be rejected")
}

func TestAddCandidateRejectsEmpty(t *testing.T) {
	svc, _, _ := newCallService()

	err := svc.AddCandidate(context.Background(), "abcd-efgh-ijkl", domain.SideOffer, domain.Candidate{})
	assert.Error(t, err)
}

func TestEndCallDeletesStateAndEndsMeeting(t *testing.T) {
	ctx := context.Background()
	svc, store, repo := newCallService()

	require.NoError(t, repo.Create(ctx, domain.NewMeeting("abcd-efgh-ijkl", "uidA", time.Hour)))
	require.NoError(t, svc.WriteOffer(ctx, "abcd-efgh-ijkl", domain.SessionDescription{Type: domain.SDPTypeOffer, SDP: "v=0 offer"}))
	require.NoError(t, svc.AddCandidate(ctx, "abcd-efgh-ijkl", domain.SideOffer, domain.Candidate{Candidate: "candidate:1"}))
	require.NoError(t, svc.AddCandidate(ctx, "abcd-efgh-ijkl", domain.SideAnswer, domain.Candidate{Candidate: "candidate:2"}))

	require.NoError(t, svc.EndCall(ctx, "abcd-efgh-ijkl"))

	_, err := store.GetCall(ctx, "abcd-efgh-ijkl")
	assert.ErrorIs(t, err, signal.ErrCallNotFound)

	meeting, err := repo.GetByID(ctx, "abcd-efgh-ijkl")
	require.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusEnded, meeting.Status)

	// Ending again on the now-empty room must not fail.
	assert.NoError(t, svc.EndCall(ctx, "abcd-efgh-ijkl"))
}

func TestEndCallWithoutMeetingRecord(t *testing.T) {
	svc, _, _ := newCallService()

	assert.NoError(t, svc.EndCall(context.Background(), "abcd-efgh-ijkl"))
}
