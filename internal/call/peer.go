package call

import (
	"github.com/pion/webrtc/v3"

	"github.com/campusbridge/meet/internal/domain"
)

// newPeerConnection builds a STUN-only peer connection. No TURN: calls that
// need a relay are out of scope, direct connectivity or nothing.
func newPeerConnection(stunServers []string, poolSize uint8) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{
		ICECandidatePoolSize: poolSize,
	}
	if len(stunServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{
			{URLs: stunServers},
		}
	}
	return webrtc.NewPeerConnection(cfg)
}

func toDomainDescription(desc webrtc.SessionDescription) domain.SessionDescription {
	return domain.SessionDescription{
		Type: domain.SDPType(desc.Type.String()),
		SDP:  desc.SDP,
	}
}

func toPionDescription(desc domain.SessionDescription) webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.NewSDPType(string(desc.Type)),
		SDP:  desc.SDP,
	}
}

func toDomainCandidate(init webrtc.ICECandidateInit) domain.Candidate {
	return domain.Candidate{
		Candidate:        init.Candidate,
		SDPMid:           init.SDPMid,
		SDPMLineIndex:    init.SDPMLineIndex,
		UsernameFragment: init.UsernameFragment,
	}
}

func toPionCandidate(cand domain.Candidate) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:        cand.Candidate,
		SDPMid:           cand.SDPMid,
		SDPMLineIndex:    cand.SDPMLineIndex,
		UsernameFragment: cand.UsernameFragment,
	}
}
