package converter

import (
	"time"

	"github.com/campusbridge/meet/internal/domain"
)

type MeetingResponse struct {
	RoomID    string    `json:"room_id"`
	HostID    string    `json:"host_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IsExpired bool      `json:"is_expired"`
}

func MeetingToApi(m *domain.Meeting) *MeetingResponse {
	return &MeetingResponse{
		RoomID:    m.RoomID,
		HostID:    m.HostID,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		EndedAt:   m.EndedAt,
		ExpiresAt: m.ExpiresAt,
		IsExpired: m.IsExpired(),
	}
}
