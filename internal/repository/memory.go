package repository

import (
	"context"
	"sync"
	"time"

	"github.com/campusbridge/meet/internal/domain"
)

type InMemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[string]*domain.Meeting
}

func NewInMemoryMeetingRepository() *InMemoryMeetingRepository {
	return &InMemoryMeetingRepository{
		meetings: make(map[string]*domain.Meeting),
	}
}

func (r *InMemoryMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[meeting.RoomID]; ok {
		return ErrMeetingExists
	}

	stored := *meeting
	r.meetings[meeting.RoomID] = &stored
	return nil
}

func (r *InMemoryMeetingRepository) GetByID(ctx context.Context, roomID string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting, ok := r.meetings[roomID]
	if !ok {
		return nil, ErrMeetingNotFound
	}

	copied := *meeting
	return &copied, nil
}

func (r *InMemoryMeetingRepository) SetStatus(ctx context.Context, roomID string, status domain.MeetingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[roomID]
	if !ok {
		return ErrMeetingNotFound
	}

	meeting.Status = status
	if status == domain.MeetingStatusEnded {
		meeting.EndedAt = time.Now().UTC()
	}
	return nil
}

func (r *InMemoryMeetingRepository) Delete(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[roomID]; !ok {
		return ErrMeetingNotFound
	}

	delete(r.meetings, roomID)
	return nil
}

func (r *InMemoryMeetingRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, meeting := range r.meetings {
		if meeting.IsExpired() || meeting.Status == domain.MeetingStatusEnded {
			delete(r.meetings, id)
			removed++
		}
	}
	return removed, nil
}

func (r *InMemoryMeetingRepository) List(ctx context.Context) ([]*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Meeting, 0, len(r.meetings))
	for _, meeting := range r.meetings {
		copied := *meeting
		result = append(result, &copied)
	}
	return result, nil
}
