package call

import (
	"context"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
)

// MediaSource provides the local tracks attached to a call. Tracks may block
// while the underlying device is acquired; Close stops whatever was acquired.
type MediaSource interface {
	Tracks(ctx context.Context) ([]webrtc.TrackLocal, error)
	Close() error
}

const silenceInterval = 20 * time.Millisecond

// silentOpusFrame is a minimal opus frame decoding to silence, enough to keep
// the RTP pipeline alive for a headless peer.
var silentOpusFrame = []byte{0xf8, 0xff, 0xfe}

// StaticSource feeds a silent audio track, letting a headless Go peer hold up
// a call without camera or microphone hardware.
type StaticSource struct {
	streamID string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStaticSource(streamID string) *StaticSource {
	return &StaticSource{streamID: streamID}
}

func (s *StaticSource) Tracks(ctx context.Context) ([]webrtc.TrackLocal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", s.streamID,
	)
	if err != nil {
		return nil, err
	}

	writeCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(silenceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-writeCtx.Done():
				return
			case <-ticker.C:
				_ = audio.WriteSample(media.Sample{
					Data:     silentOpusFrame,
					Duration: silenceInterval,
				})
			}
		}
	}()

	return []webrtc.TrackLocal{audio}, nil
}

// Close stops the sample writer. Safe to call before Tracks or more than once.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
