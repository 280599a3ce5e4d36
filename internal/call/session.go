// Package call drives one WebRTC peer connection per call through its
// offer/answer/ICE lifecycle, using the signal store as the relay between the
// two sides. A Session owns every per-call resource, so two calls can never
// clobber each other's state and teardown has one obvious target.
package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/signal"
	"github.com/campusbridge/meet/lib/logger/sl"
)

// ErrNoOffer is re-exported so callers of Answer need not import signal.
var ErrNoOffer = signal.ErrNoOffer

// Config carries the collaborators a Session needs.
type Config struct {
	Store             signal.Store
	STUNServers       []string
	CandidatePoolSize uint8
	Logger            *slog.Logger
}

// Session is one side of one active call.
type Session struct {
	roomID string
	role   domain.Role
	store  signal.Store
	log    *slog.Logger

	pc     *webrtc.PeerConnection
	source MediaSource
	remote *RemoteStream

	// cancel stops the candidate publisher and the store watchers.
	cancel context.CancelFunc

	descMu  sync.Mutex
	descSet bool
	pending []webrtc.ICECandidateInit

	closeOnce sync.Once
	closeErr  error
}

// Dial starts a call as the host: acquire media, publish the offer, then
// watch for the answer and the guest's candidates.
func Dial(ctx context.Context, cfg Config, roomID string, source MediaSource, onRemote RemoteStreamFunc) (*Session, error) {
	return establish(ctx, cfg, roomID, domain.RoleHost, source, onRemote)
}

// Answer joins a call as the guest. The offer must already exist; answering a
// room that has not been offered yet fails with ErrNoOffer.
func Answer(ctx context.Context, cfg Config, roomID string, source MediaSource, onRemote RemoteStreamFunc) (*Session, error) {
	return establish(ctx, cfg, roomID, domain.RoleGuest, source, onRemote)
}

func establish(ctx context.Context, cfg Config, roomID string, role domain.Role, source MediaSource, onRemote RemoteStreamFunc) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		slog.String("room_id", roomID),
		slog.String("role", string(role)),
	)

	var offer *domain.SessionDescription
	if role == domain.RoleGuest {
		callRecord, err := cfg.Store.GetCall(ctx, roomID)
		if err != nil {
			if errors.Is(err, signal.ErrCallNotFound) {
				return nil, ErrNoOffer
			}
			return nil, fmt.Errorf("read call: %w", err)
		}
		if callRecord.Offer == nil {
			return nil, ErrNoOffer
		}
		offer = callRecord.Offer
	}

	tracks, err := source.Tracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire media: %w", err)
	}
	// The caller may have hung up while media acquisition was blocked on the
	// device; release it instead of negotiating a dead call.
	if err := ctx.Err(); err != nil {
		_ = source.Close()
		return nil, err
	}

	pc, err := newPeerConnection(cfg.STUNServers, cfg.CandidatePoolSize)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		roomID: roomID,
		role:   role,
		store:  cfg.Store,
		log:    log,
		pc:     pc,
		source: source,
		remote: &RemoteStream{},
		cancel: cancel,
	}

	for _, track := range tracks {
		if _, err := pc.AddTrack(track); err != nil {
			s.abort(ctx)
			return nil, fmt.Errorf("add local track: %w", err)
		}
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		s.remote.addTrack(track)
		log.Info("remote track added",
			slog.String("kind", track.Kind().String()),
			slog.Int("tracks", s.remote.Len()),
		)
		if onRemote != nil {
			onRemote(s.remote)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Info("connection state changed", slog.String("state", state.String()))
	})

	// Trickle ICE: publish every locally discovered candidate to our own
	// collection. Discovery keeps running for the life of the call.
	ownSide := domain.SideOffer
	if role == domain.RoleGuest {
		ownSide = domain.SideAnswer
	}
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		cand := toDomainCandidate(c.ToJSON())
		if err := cfg.Store.AddCandidate(sessionCtx, roomID, ownSide, cand); err != nil {
			log.Warn("failed to publish candidate", sl.Err(err))
		}
	})

	if role == domain.RoleHost {
		if err := s.sendOffer(ctx); err != nil {
			s.abort(ctx)
			return nil, err
		}
		if err := s.watchAnswer(sessionCtx); err != nil {
			s.abort(ctx)
			return nil, err
		}
	} else {
		if err := s.sendAnswer(ctx, *offer); err != nil {
			s.abort(ctx)
			return nil, err
		}
	}

	if err := s.watchCandidates(sessionCtx, ownSide.Opposite()); err != nil {
		s.abort(ctx)
		return nil, err
	}

	log.Info("call negotiation started")
	return s, nil
}

func (s *Session) sendOffer(ctx context.Context) error {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	if err := s.store.SaveOffer(ctx, s.roomID, toDomainDescription(offer)); err != nil {
		return fmt.Errorf("save offer: %w", err)
	}
	return nil
}

func (s *Session) sendAnswer(ctx context.Context, offer domain.SessionDescription) error {
	if err := s.applyRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	if err := s.store.SaveAnswer(ctx, s.roomID, toDomainDescription(answer)); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// watchAnswer applies the answer when it first appears. Re-deliveries of the
// same record are ignored: the remote description is set at most once.
func (s *Session) watchAnswer(ctx context.Context) error {
	updates, err := s.store.WatchCall(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("watch call: %w", err)
	}

	go func() {
		for update := range updates {
			if update.Answer == nil {
				continue
			}
			if err := s.applyRemoteDescription(*update.Answer); err != nil {
				if !errors.Is(err, errDescriptionSet) {
					s.log.Warn("failed to apply answer", sl.Err(err))
				}
				continue
			}
			s.log.Info("answer applied")
		}
	}()
	return nil
}

func (s *Session) watchCandidates(ctx context.Context, side domain.CandidateSide) error {
	candidates, err := s.store.WatchCandidates(ctx, s.roomID, side)
	if err != nil {
		return fmt.Errorf("watch candidates: %w", err)
	}

	go func() {
		for cand := range candidates {
			if err := s.addCandidate(toPionCandidate(cand)); err != nil {
				s.log.Warn("failed to add candidate", sl.Err(err))
			}
		}
	}()
	return nil
}

var errDescriptionSet = errors.New("remote description already set")

// applyRemoteDescription sets the remote description exactly once and flushes
// any candidates that arrived before it.
func (s *Session) applyRemoteDescription(desc domain.SessionDescription) error {
	s.descMu.Lock()
	if s.descSet {
		s.descMu.Unlock()
		return errDescriptionSet
	}
	s.descSet = true
	pending := s.pending
	s.pending = nil
	s.descMu.Unlock()

	if err := s.pc.SetRemoteDescription(toPionDescription(desc)); err != nil {
		return err
	}

	for _, cand := range pending {
		if err := s.pc.AddICECandidate(cand); err != nil {
			s.log.Warn("failed to add buffered candidate", sl.Err(err))
		}
	}
	return nil
}

// addCandidate tolerates arbitrary interleaving with the remote description:
// candidates arriving first are buffered and flushed once it is applied.
func (s *Session) addCandidate(cand webrtc.ICECandidateInit) error {
	s.descMu.Lock()
	if !s.descSet {
		s.pending = append(s.pending, cand)
		s.descMu.Unlock()
		return nil
	}
	s.descMu.Unlock()

	return s.pc.AddICECandidate(cand)
}

// RoomID returns the room this session negotiates in.
func (s *Session) RoomID() string { return s.roomID }

// Role returns which side of the call this session is.
func (s *Session) Role() domain.Role { return s.role }

// Remote returns the aggregated remote stream.
func (s *Session) Remote() *RemoteStream { return s.remote }

// ConnectionState reports the underlying peer connection state.
func (s *Session) ConnectionState() webrtc.PeerConnectionState {
	return s.pc.ConnectionState()
}

// Close tears the call down: stop the watchers and the local media, close the
// peer connection, delete the negotiation record and both candidate
// collections. Idempotent; repeated calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.cancel()

		var errs []error
		if s.source != nil {
			if err := s.source.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close media source: %w", err))
			}
		}
		if s.pc != nil {
			if err := s.pc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close peer connection: %w", err))
			}
		}
		if err := s.store.DeleteCall(ctx, s.roomID); err != nil {
			errs = append(errs, fmt.Errorf("delete call state: %w", err))
		}

		s.closeErr = errors.Join(errs...)
		if s.closeErr == nil {
			s.log.Info("call ended")
		} else {
			s.log.Error("call teardown incomplete", sl.Err(s.closeErr))
		}
	})
	return s.closeErr
}

// abort releases the local half of a partially built session when
// establishment fails. Store state already written stays in place; there is
// no compensating transaction.
func (s *Session) abort(context.Context) {
	s.cancel()
	if s.source != nil {
		_ = s.source.Close()
	}
	if s.pc != nil {
		_ = s.pc.Close()
	}
}
