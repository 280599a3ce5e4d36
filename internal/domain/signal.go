package domain

// SDPType distinguishes the two halves of the handshake.
type SDPType string

const (
	SDPTypeOffer  SDPType = "offer"
	SDPTypeAnswer SDPType = "answer"
)

// SessionDescription is the offer or answer written into the negotiation
// record. The SDP body is opaque to this service.
type SessionDescription struct {
	Type SDPType `json:"type"`
	SDP  string  `json:"sdp"`
}

// CandidateSide names one of the two append-only candidate collections.
// Each side of the call publishes only to its own collection and consumes
// only the other; that write-disjointness is the concurrency contract.
type CandidateSide string

const (
	SideOffer  CandidateSide = "offer"
	SideAnswer CandidateSide = "answer"
)

// Opposite returns the collection the given side consumes.
func (s CandidateSide) Opposite() CandidateSide {
	if s == SideOffer {
		return SideAnswer
	}
	return SideOffer
}

// Candidate is one serialized ICE candidate in the pion/browser JSON shape.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// Call is the negotiation record for one room. Offer is set exactly once by
// the initiator, answer exactly once by the responder after the offer exists.
type Call struct {
	RoomID string              `json:"room_id"`
	Offer  *SessionDescription `json:"offer,omitempty"`
	Answer *SessionDescription `json:"answer,omitempty"`
}

// CallUpdate is one change-feed event for a negotiation record.
type CallUpdate struct {
	RoomID string              `json:"room_id"`
	Offer  *SessionDescription `json:"offer,omitempty"`
	Answer *SessionDescription `json:"answer,omitempty"`
}
