package live

import (
	"encoding/base64"
	"fmt"

	"github.com/vbharat/go-buddy/pkg/audioio"
)

// DecodeError indicates a malformed inbound audio payload.
// Callers drop the offending chunk; it never tears down the session.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "live: decode audio: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// PlayableBuffer holds decoded mono samples ready for scheduling.
type PlayableBuffer struct {
	// Samples are normalized to [-1, 1].
	Samples []float32

	// SampleRate is the declared playback rate in Hz.
	SampleRate int
}

// Duration returns the buffer's play time in seconds.
func (b *PlayableBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// EncodeAudio converts normalized float samples to the wire encoding:
// 16-bit little-endian PCM wrapped in standard base64.
func EncodeAudio(samples []float32) string {
	data := audioio.SamplesToBytes(audioio.FloatsToSamples(samples))
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeAudio reverses EncodeAudio. The sample rate is declarative: it
// is stamped onto the buffer, not measured from the payload, so a
// remote rate change would shift pitch rather than fail.
func DecodeAudio(data string, sampleRate int) (*PlayableBuffer, error) {
	if sampleRate <= 0 {
		return nil, &DecodeError{Cause: fmt.Errorf("invalid sample rate %d", sampleRate)}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if len(raw)%2 != 0 {
		return nil, &DecodeError{Cause: fmt.Errorf("odd payload length %d", len(raw))}
	}

	return &PlayableBuffer{
		Samples:    audioio.SamplesToFloats(audioio.BytesToSamples(raw)),
		SampleRate: sampleRate,
	}, nil
}
