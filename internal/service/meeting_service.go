package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/lib/logger/sl"
)

var ErrInvalidRoomID = errors.New("invalid room id")

type MeetingService struct {
	meetings repository.MeetingRepository
	log      *slog.Logger
	lifetime time.Duration
}

func NewMeetingService(meetings repository.MeetingRepository, log *slog.Logger, lifetime time.Duration) *MeetingService {
	if log == nil {
		log = slog.Default()
	}
	return &MeetingService{
		meetings: meetings,
		log:      log,
		lifetime: lifetime,
	}
}

// EnsureRoom guarantees the room exists and resolves the caller's role.
// First arrival wins: the conditional create either installs the caller as
// host or loses to an existing record, in which case the role comes from the
// persisted host id. Repeated calls by the same user are safe.
//
// An empty roomID asks for a server-issued id, retried on the improbable
// collision.
func (s *MeetingService) EnsureRoom(ctx context.Context, roomID string, userID string) (*domain.Meeting, domain.Role, error) {
	const op = "service.meeting.ensureRoom"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	if userID == "" {
		return nil, "", errors.New("user id is required")
	}

	if roomID == "" {
		for {
			roomID = domain.GenerateRoomID()
			meeting := domain.NewMeeting(roomID, userID, s.lifetime)
			err := s.meetings.Create(ctx, meeting)
			if errors.Is(err, repository.ErrMeetingExists) {
				continue
			}
			if err != nil {
				log.Error("failed to create meeting", sl.Err(err))
				return nil, "", fmt.Errorf("%s: %w", op, err)
			}
			log.Info("meeting created", slog.String("room_id", roomID))
			return meeting, domain.RoleHost, nil
		}
	}

	if !domain.ValidRoomID(roomID) {
		return nil, "", ErrInvalidRoomID
	}

	meeting := domain.NewMeeting(roomID, userID, s.lifetime)
	err := s.meetings.Create(ctx, meeting)
	if err == nil {
		log.Info("meeting created", slog.String("room_id", roomID))
		return meeting, domain.RoleHost, nil
	}
	if !errors.Is(err, repository.ErrMeetingExists) {
		log.Error("failed to create meeting", sl.Err(err))
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.meetings.GetByID(ctx, roomID)
	if err != nil {
		log.Error("failed to load meeting", sl.Err(err))
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	role := existing.RoleOf(userID)
	log.Info("meeting joined",
		slog.String("room_id", roomID),
		slog.String("role", string(role)),
	)
	return existing, role, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, roomID string) (*domain.Meeting, error) {
	return s.meetings.GetByID(ctx, roomID)
}

// EndMeeting flips the meeting to ended so the reaper can collect it. The
// identity record itself survives until the reaper runs.
func (s *MeetingService) EndMeeting(ctx context.Context, roomID string) error {
	err := s.meetings.SetStatus(ctx, roomID, domain.MeetingStatusEnded)
	if err != nil && !errors.Is(err, repository.ErrMeetingNotFound) {
		return err
	}
	return nil
}

// ReapExpired deletes ended and expired meetings.
func (s *MeetingService) ReapExpired(ctx context.Context) (int64, error) {
	removed, err := s.meetings.DeleteExpired(ctx)
	if err != nil {
		s.log.Error("meeting reap failed", sl.Err(err))
		return 0, err
	}
	if removed > 0 {
		s.log.Info("meetings reaped", slog.Int64("count", removed))
	}
	return removed, nil
}
