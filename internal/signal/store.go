// Package signal carries the negotiation facet of a room: the offer/answer
// record and the two append-only ICE candidate collections, with a realtime
// change feed over them. It is the relay between the two peers of a call:
// each side writes only its own half and watches the other.
package signal

import (
	"context"
	"errors"

	"github.com/campusbridge/meet/internal/domain"
)

var (
	// ErrCallNotFound means no negotiation record exists for the room.
	ErrCallNotFound = errors.New("call not found")
	// ErrNoOffer means a responder tried to answer a call that has not been
	// offered yet. It is a distinct failure, not a silent no-op.
	ErrNoOffer = errors.New("no offer for room yet")
)

// Store is the asynchronous document store mediating one call per room.
//
// Watch channels are closed when the watch context is canceled or the call is
// deleted. WatchCandidates replays every candidate already present before
// streaming new ones; each candidate is delivered exactly once per watcher.
type Store interface {
	SaveOffer(ctx context.Context, roomID string, desc domain.SessionDescription) error
	SaveAnswer(ctx context.Context, roomID string, desc domain.SessionDescription) error
	GetCall(ctx context.Context, roomID string) (*domain.Call, error)

	AddCandidate(ctx context.Context, roomID string, side domain.CandidateSide, cand domain.Candidate) error
	Candidates(ctx context.Context, roomID string, side domain.CandidateSide) ([]domain.Candidate, error)

	WatchCall(ctx context.Context, roomID string) (<-chan domain.CallUpdate, error)
	WatchCandidates(ctx context.Context, roomID string, side domain.CandidateSide) (<-chan domain.Candidate, error)

	// DeleteCall removes the negotiation record and both candidate
	// collections. Deleting an absent call is not an error.
	DeleteCall(ctx context.Context, roomID string) error
}
