package signal

import (
	"context"
	"sync"

	"github.com/campusbridge/meet/internal/domain"
)

const watchBuffer = 64

type callSub struct {
	ch   chan domain.CallUpdate
	once sync.Once
}

func (s *callSub) close() { s.once.Do(func() { close(s.ch) }) }

type candSub struct {
	side domain.CandidateSide
	ch   chan domain.Candidate
	once sync.Once
}

func (s *candSub) close() { s.once.Do(func() { close(s.ch) }) }

type memoryCall struct {
	call       domain.Call
	candidates map[domain.CandidateSide][]domain.Candidate
	callSubs   []*callSub
	candSubs   []*candSub
}

// InMemoryStore is a process-local Store used by tests and single-node runs.
// Delivery order per watcher matches write order.
type InMemoryStore struct {
	mu    sync.Mutex
	calls map[string]*memoryCall
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{calls: make(map[string]*memoryCall)}
}

func (s *InMemoryStore) room(roomID string) *memoryCall {
	c, ok := s.calls[roomID]
	if !ok {
		c = &memoryCall{
			call:       domain.Call{RoomID: roomID},
			candidates: make(map[domain.CandidateSide][]domain.Candidate),
		}
		s.calls[roomID] = c
	}
	return c
}

func (s *InMemoryStore) SaveOffer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.room(roomID)
	stored := desc
	c.call.Offer = &stored
	notifyCall(c, domain.CallUpdate{RoomID: roomID, Offer: &stored})
	return nil
}

func (s *InMemoryStore) SaveAnswer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.room(roomID)
	stored := desc
	c.call.Answer = &stored
	notifyCall(c, domain.CallUpdate{RoomID: roomID, Answer: &stored})
	return nil
}

func (s *InMemoryStore) GetCall(ctx context.Context, roomID string) (*domain.Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[roomID]
	if !ok {
		return nil, ErrCallNotFound
	}

	copied := c.call
	return &copied, nil
}

func (s *InMemoryStore) AddCandidate(ctx context.Context, roomID string, side domain.CandidateSide, cand domain.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.room(roomID)
	c.candidates[side] = append(c.candidates[side], cand)
	for _, sub := range c.candSubs {
		if sub.side != side {
			continue
		}
		select {
		case sub.ch <- cand:
		default:
		}
	}
	return nil
}

func (s *InMemoryStore) Candidates(ctx context.Context, roomID string, side domain.CandidateSide) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[roomID]
	if !ok {
		return nil, nil
	}
	return append([]domain.Candidate(nil), c.candidates[side]...), nil
}

func (s *InMemoryStore) WatchCall(ctx context.Context, roomID string) (<-chan domain.CallUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c := s.room(roomID)
	sub := &callSub{ch: make(chan domain.CallUpdate, watchBuffer)}
	if c.call.Offer != nil || c.call.Answer != nil {
		sub.ch <- domain.CallUpdate{RoomID: roomID, Offer: c.call.Offer, Answer: c.call.Answer}
	}
	c.callSubs = append(c.callSubs, sub)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.dropCallSub(roomID, sub)
	}()

	return sub.ch, nil
}

func (s *InMemoryStore) WatchCandidates(ctx context.Context, roomID string, side domain.CandidateSide) (<-chan domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c := s.room(roomID)
	sub := &candSub{side: side, ch: make(chan domain.Candidate, watchBuffer)}
	for _, cand := range c.candidates[side] {
		sub.ch <- cand
	}
	c.candSubs = append(c.candSubs, sub)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.dropCandSub(roomID, sub)
	}()

	return sub.ch, nil
}

func (s *InMemoryStore) DeleteCall(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	c, ok := s.calls[roomID]
	if ok {
		delete(s.calls, roomID)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	for _, sub := range c.callSubs {
		sub.close()
	}
	for _, sub := range c.candSubs {
		sub.close()
	}
	return nil
}

func notifyCall(c *memoryCall, update domain.CallUpdate) {
	for _, sub := range c.callSubs {
		select {
		case sub.ch <- update:
		default:
		}
	}
}

func (s *InMemoryStore) dropCallSub(roomID string, sub *callSub) {
	s.mu.Lock()
	if c, ok := s.calls[roomID]; ok {
		for i, existing := range c.callSubs {
			if existing == sub {
				c.callSubs = append(c.callSubs[:i], c.callSubs[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	sub.close()
}

func (s *InMemoryStore) dropCandSub(roomID string, sub *candSub) {
	s.mu.Lock()
	if c, ok := s.calls[roomID]; ok {
		for i, existing := range c.candSubs {
			if existing == sub {
				c.candSubs = append(c.candSubs[:i], c.candSubs[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	sub.close()
}
