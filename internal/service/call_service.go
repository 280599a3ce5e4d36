package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/internal/signal"
	"github.com/campusbridge/meet/lib/logger/sl"
)

// CallService mediates browser peers' access to the negotiation record. The
// peers themselves drive their WebRTC engines; this service only enforces the
// handshake contract on the shared store.
type CallService struct {
	store    signal.Store
	meetings repository.MeetingRepository
	log      *slog.Logger
}

func NewCallService(store signal.Store, meetings repository.MeetingRepository, log *slog.Logger) *CallService {
	if log == nil {
		log = slog.Default()
	}
	return &CallService{
		store:    store,
		meetings: meetings,
		log:      log,
	}
}

func (s *CallService) WriteOffer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	if desc.Type != domain.SDPTypeOffer || desc.SDP == "" {
		return errors.New("description is not an offer")
	}
	if err := s.store.SaveOffer(ctx, roomID, desc); err != nil {
		s.log.Error("failed to write offer", slog.String("room_id", roomID), sl.Err(err))
		return fmt.Errorf("write offer: %w", err)
	}
	s.log.Info("offer written", slog.String("room_id", roomID))
	return nil
}

// WriteAnswer refuses to record an answer for a call that has no offer yet.
func (s *CallService) WriteAnswer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	if desc.Type != domain.SDPTypeAnswer || desc.SDP == "" {
		return errors.New("description is not an answer")
	}

	callRecord, err := s.store.GetCall(ctx, roomID)
	if err != nil {
		if errors.Is(err, signal.ErrCallNotFound) {
			return signal.ErrNoOffer
		}
		return fmt.Errorf("read call: %w", err)
	}
	if callRecord.Offer == nil {
		return signal.ErrNoOffer
	}

	if err := s.store.SaveAnswer(ctx, roomID, desc); err != nil {
		s.log.Error("failed to write answer", slog.String("room_id", roomID), sl.Err(err))
		return fmt.Errorf("write answer: %w", err)
	}
	s.log.Info("answer written", slog.String("room_id", roomID))
	return nil
}

func (s *CallService) AddCandidate(ctx context.Context, roomID string, side domain.CandidateSide, cand domain.Candidate) error {
	if cand.Candidate == "" {
		return errors.New("candidate is empty")
	}
	return s.store.AddCandidate(ctx, roomID, side, cand)
}

func (s *CallService) GetCall(ctx context.Context, roomID string) (*domain.Call, error) {
	return s.store.GetCall(ctx, roomID)
}

func (s *CallService) Candidates(ctx context.Context, roomID string, side domain.CandidateSide) ([]domain.Candidate, error) {
	return s.store.Candidates(ctx, roomID, side)
}

func (s *CallService) WatchCall(ctx context.Context, roomID string) (<-chan domain.CallUpdate, error) {
	return s.store.WatchCall(ctx, roomID)
}

func (s *CallService) WatchCandidates(ctx context.Context, roomID string, side domain.CandidateSide) (<-chan domain.Candidate, error) {
	return s.store.WatchCandidates(ctx, roomID, side)
}

// EndCall deletes the negotiation record and both candidate collections, then
// marks the meeting ended. Ending a call that never started is fine.
func (s *CallService) EndCall(ctx context.Context, roomID string) error {
	if err := s.store.DeleteCall(ctx, roomID); err != nil {
		s.log.Error("failed to delete call", slog.String("room_id", roomID), sl.Err(err))
		return fmt.Errorf("end call: %w", err)
	}

	if err := s.meetings.SetStatus(ctx, roomID, domain.MeetingStatusEnded); err != nil &&
		!errors.Is(err, repository.ErrMeetingNotFound) {
		return fmt.Errorf("end call: %w", err)
	}

	s.log.Info("call ended", slog.String("room_id", roomID))
	return nil
}
