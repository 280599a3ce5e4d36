package call

import (
	"sync"

	"github.com/pion/webrtc/v3"
)

// RemoteStream aggregates every inbound track of one call. Tracks accumulate
// monotonically; the same stream object is re-delivered to the session's
// callback each time a track arrives, so consumers read it as "the current
// state of the remote side", not a one-shot event.
type RemoteStream struct {
	mu     sync.RWMutex
	tracks []*webrtc.TrackRemote
}

func (s *RemoteStream) addTrack(track *webrtc.TrackRemote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, track)
}

// Tracks returns a snapshot of all tracks received so far.
func (s *RemoteStream) Tracks() []*webrtc.TrackRemote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*webrtc.TrackRemote(nil), s.tracks...)
}

func (s *RemoteStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// RemoteStreamFunc receives the aggregated remote stream. It may be invoked
// multiple times per call, once per inbound track.
type RemoteStreamFunc func(*RemoteStream)
