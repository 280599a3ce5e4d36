package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the side a user takes in a two-party call. The host is whoever's
// access created the meeting record; everyone else joining the same room is
// a guest.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

type MeetingStatus string

const (
	MeetingStatusActive MeetingStatus = "active"
	MeetingStatusEnded  MeetingStatus = "ended"
)

// Meeting is the identity facet of a room: who created it and whether it is
// still live. The negotiation facet (offer/answer/candidates) lives in the
// signal store under the same room id.
type Meeting struct {
	ID        string        `json:"id"`
	RoomID    string        `json:"room_id"`
	HostID    string        `json:"host_id"`
	Status    MeetingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitempty"`
}

// NewMeeting constructs an active meeting hosted by the given user. A zero
// lifetime means the meeting never expires on its own.
func NewMeeting(roomID, hostID string, lifetime time.Duration) *Meeting {
	now := time.Now().UTC()
	m := &Meeting{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		HostID:    hostID,
		Status:    MeetingStatusActive,
		CreatedAt: now,
	}
	if lifetime > 0 {
		m.ExpiresAt = now.Add(lifetime)
	}
	return m
}

// RoleOf resolves the caller's role by comparing against the persisted host
// id, never by re-deriving arrival order.
func (m *Meeting) RoleOf(userID string) Role {
	if m.HostID == userID {
		return RoleHost
	}
	return RoleGuest
}

// IsExpired reports whether the meeting is past its lifetime.
func (m *Meeting) IsExpired() bool {
	if m == nil {
		return true
	}
	if m.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().After(m.ExpiresAt)
}

const (
	roomIDSegments   = 3
	roomIDSegmentLen = 4
	roomIDAlphabet   = "abcdefghijklmnopqrstuvwxyz"
)

// GenerateRoomID returns a shareable room id of three hyphenated 4-letter
// segments, e.g. "abcd-efgh-ijkl". Uniqueness is enforced by the repository's
// conditional create, not by the generator.
func GenerateRoomID() string {
	var b strings.Builder
	for seg := 0; seg < roomIDSegments; seg++ {
		if seg > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < roomIDSegmentLen; i++ {
			n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDAlphabet))))
			b.WriteByte(roomIDAlphabet[n.Int64()])
		}
	}
	return b.String()
}

// ValidRoomID checks the shape produced by GenerateRoomID. Client-supplied
// ids must match it before they reach the repository.
func ValidRoomID(id string) bool {
	parts := strings.Split(id, "-")
	if len(parts) != roomIDSegments {
		return false
	}
	for _, part := range parts {
		if len(part) != roomIDSegmentLen {
			return false
		}
		for _, r := range part {
			if r < 'a' || r > 'z' {
				return false
			}
		}
	}
	return true
}
