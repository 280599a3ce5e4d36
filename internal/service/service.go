package service

import (
	"context"

	"github.com/campusbridge/meet/internal/domain"
)

type MeetingInteractor interface {
	EnsureRoom(ctx context.Context, roomID string, userID string) (*domain.Meeting, domain.Role, error)
	GetMeeting(ctx context.Context, roomID string) (*domain.Meeting, error)
	EndMeeting(ctx context.Context, roomID string) error
	ReapExpired(ctx context.Context) (int64, error)
}

type CallInteractor interface {
	WriteOffer(ctx context.Context, roomID string, desc domain.SessionDescription) error
	WriteAnswer(ctx context.Context, roomID string, desc domain.SessionDescription) error
	AddCandidate(ctx context.Context, roomID string, side domain.CandidateSide, cand domain.Candidate) error
	GetCall(ctx context.Context, roomID string) (*domain.Call, error)
	Candidates(ctx context.Context, roomID string, side domain.CandidateSide) ([]domain.Candidate, error)
	WatchCall(ctx context.Context, roomID string) (<-chan domain.CallUpdate, error)
	WatchCandidates(ctx context.Context, roomID string, side domain.CandidateSide) (<-chan domain.Candidate, error)
	EndCall(ctx context.Context, roomID string) error
}
