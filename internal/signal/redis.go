package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusbridge/meet/internal/config"
	"github.com/campusbridge/meet/internal/domain"
)

// callTTL bounds how long an abandoned negotiation record can linger.
// A healthy call deletes its own state on teardown well before this.
const callTTL = 24 * time.Hour

const (
	eventOffer           = "offer"
	eventAnswer          = "answer"
	eventOfferCandidate  = "offer-candidate"
	eventAnswerCandidate = "answer-candidate"
	eventEnded           = "ended"
)

// callEvent is the change-feed payload published per write. Candidate events
// carry the list index so late subscribers can splice replay and live
// delivery without duplicates.
type callEvent struct {
	Kind      string                     `json:"kind"`
	Desc      *domain.SessionDescription `json:"desc,omitempty"`
	Candidate *domain.Candidate          `json:"candidate,omitempty"`
	Index     int64                      `json:"index,omitempty"`
}

// RedisStore keeps negotiation state in Redis: a hash per call for the
// offer/answer fields, a list per candidate side, and a pub/sub channel per
// room as the realtime change feed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect dials Redis with the given config and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func callKey(roomID string) string { return "call:" + roomID }

func candidatesKey(roomID string, side domain.CandidateSide) string {
	return "call:" + roomID + ":candidates:" + string(side)
}

func eventsKey(roomID string) string { return "call:" + roomID + ":events" }

func (s *RedisStore) SaveOffer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	return s.saveDescription(ctx, roomID, "offer", eventOffer, desc)
}

func (s *RedisStore) SaveAnswer(ctx context.Context, roomID string, desc domain.SessionDescription) error {
	return s.saveDescription(ctx, roomID, "answer", eventAnswer, desc)
}

func (s *RedisStore) saveDescription(ctx context.Context, roomID, field, kind string, desc domain.SessionDescription) error {
	data, err := json.Marshal(desc)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, callKey(roomID), field, data)
	pipe.Expire(ctx, callKey(roomID), callTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save %s: %w", field, err)
	}

	return s.publish(ctx, roomID, callEvent{Kind: kind, Desc: &desc})
}

func (s *RedisStore) GetCall(ctx context.Context, roomID string) (*domain.Call, error) {
	fields, err := s.client.HGetAll(ctx, callKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrCallNotFound
	}

	call := &domain.Call{RoomID: roomID}
	if raw, ok := fields["offer"]; ok {
		var desc domain.SessionDescription
		if err := json.Unmarshal([]byte(raw), &desc); err != nil {
			return nil, err
		}
		call.Offer = &desc
	}
	if raw, ok := fields["answer"]; ok {
		var desc domain.SessionDescription
		if err := json.Unmarshal([]byte(raw), &desc); err != nil {
			return nil, err
		}
		call.Answer = &desc
	}
	return call, nil
}

func (s *RedisStore) AddCandidate(ctx context.Context, roomID string, side domain.CandidateSide, cand domain.Candidate) error {
	data, err := json.Marshal(cand)
	if err != nil {
		return err
	}

	length, err := s.client.RPush(ctx, candidatesKey(roomID, side), data).Result()
	if err != nil {
		return fmt.Errorf("failed to append candidate: %w", err)
	}
	s.client.Expire(ctx, candidatesKey(roomID, side), callTTL)

	kind := eventOfferCandidate
	if side == domain.SideAnswer {
		kind = eventAnswerCandidate
	}
	return s.publish(ctx, roomID, callEvent{Kind: kind, Candidate: &cand, Index: length - 1})
}

func (s *RedisStore) Candidates(ctx context.Context, roomID string, side domain.CandidateSide) ([]domain.Candidate, error) {
	raw, err := s.client.LRange(ctx, candidatesKey(roomID, side), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(raw))
	for _, item := range raw {
		var cand domain.Candidate
		if err := json.Unmarshal([]byte(item), &cand); err != nil {
			return nil, err
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// WatchCall subscribes to the room's change feed and emits the current record
// first, so a watcher that arrives after the counterpart wrote still observes
// it. The channel closes when the call ends or ctx is canceled.
func (s *RedisStore) WatchCall(ctx context.Context, roomID string) (<-chan domain.CallUpdate, error) {
	sub := s.client.Subscribe(ctx, eventsKey(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	snapshot, err := s.GetCall(ctx, roomID)
	if err != nil && !errors.Is(err, ErrCallNotFound) {
		sub.Close()
		return nil, err
	}

	out := make(chan domain.CallUpdate, 8)
	go func() {
		defer close(out)
		defer sub.Close()

		if snapshot != nil && (snapshot.Offer != nil || snapshot.Answer != nil) {
			update := domain.CallUpdate{RoomID: roomID, Offer: snapshot.Offer, Answer: snapshot.Answer}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev callEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}

				var update domain.CallUpdate
				switch ev.Kind {
				case eventOffer:
					update = domain.CallUpdate{RoomID: roomID, Offer: ev.Desc}
				case eventAnswer:
					update = domain.CallUpdate{RoomID: roomID, Answer: ev.Desc}
				case eventEnded:
					return
				default:
					continue
				}

				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// WatchCandidates delivers every candidate of one side, prior and future,
// exactly once: subscribe first, replay the list, then pass through only the
// live events whose index is past the replayed range.
func (s *RedisStore) WatchCandidates(ctx context.Context, roomID string, side domain.CandidateSide) (<-chan domain.Candidate, error) {
	sub := s.client.Subscribe(ctx, eventsKey(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	replay, err := s.Candidates(ctx, roomID, side)
	if err != nil {
		sub.Close()
		return nil, err
	}

	wantKind := eventOfferCandidate
	if side == domain.SideAnswer {
		wantKind = eventAnswerCandidate
	}

	out := make(chan domain.Candidate, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		for _, cand := range replay {
			select {
			case out <- cand:
			case <-ctx.Done():
				return
			}
		}
		next := int64(len(replay))

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev callEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				if ev.Kind == eventEnded {
					return
				}
				if ev.Kind != wantKind || ev.Candidate == nil || ev.Index < next {
					continue
				}
				next = ev.Index + 1

				select {
				case out <- *ev.Candidate:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *RedisStore) DeleteCall(ctx context.Context, roomID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, callKey(roomID))
	pipe.Del(ctx, candidatesKey(roomID, domain.SideOffer))
	pipe.Del(ctx, candidatesKey(roomID, domain.SideAnswer))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}

	return s.publish(ctx, roomID, callEvent{Kind: eventEnded})
}

func (s *RedisStore) publish(ctx context.Context, roomID string, ev callEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, eventsKey(roomID), data).Err()
}
