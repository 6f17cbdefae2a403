package live

import (
	"context"

	"github.com/vbharat/go-buddy/pkg/audioio"
)

// runCapture streams microphone frames to the transport while the
// session is open. Frames are fire-and-forget: there is no queue and
// no backpressure, a frame the transport cannot take is dropped. This
// at-most-once policy is deliberate; buffering would change latency.
func (s *Session) runCapture(ctx context.Context) {
	if s.source == nil {
		s.logger.Info("no microphone configured, capture disabled")
		return
	}

	if err := s.source.Start(ctx); err != nil {
		// Voice input is absent but the session stays usable.
		s.logger.Warn("microphone unavailable, capture disabled", "error", err)
		return
	}

	s.logger.Info("capture started",
		"backend", s.source.Name(),
		"sample_rate", s.cfg.InputSampleRate,
		"frame_samples", s.cfg.FrameSamples,
	)

	frame := make([]float32, 0, s.cfg.FrameSamples*2)

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-s.source.Stream():
			if !ok {
				return
			}

			samples := chunk.Samples
			if chunk.SampleRate != s.cfg.InputSampleRate {
				samples = audioio.Resample(samples, chunk.SampleRate, s.cfg.InputSampleRate)
			}
			frame = append(frame, audioio.SamplesToFloats(samples)...)

			for len(frame) >= s.cfg.FrameSamples {
				encoded := EncodeAudio(frame[:s.cfg.FrameSamples])
				if err := s.transport.SendAudioFrame(encoded); err != nil {
					framesDropped.Inc()
					if s.cfg.Debug {
						s.logger.Debug("audio frame dropped", "error", err)
					}
				} else {
					framesSent.Inc()
				}

				n := copy(frame, frame[s.cfg.FrameSamples:])
				frame = frame[:n]
			}
		}
	}
}
