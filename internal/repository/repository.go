package repository

import (
	"context"
	"errors"

	"github.com/campusbridge/meet/internal/domain"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingExists   = errors.New("meeting already exists")
)

// MeetingRepository stores the identity facet of rooms. Create is a
// conditional insert: two simultaneous first-arrivals must resolve to exactly
// one stored host, the loser getting ErrMeetingExists.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, roomID string) (*domain.Meeting, error)
	SetStatus(ctx context.Context, roomID string, status domain.MeetingStatus) error
	Delete(ctx context.Context, roomID string) error
	DeleteExpired(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*domain.Meeting, error)
}
