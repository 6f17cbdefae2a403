// Package audioio provides cross-platform audio capture and playback.
//
// Capture and playback run through external tools (arecord/aplay on
// Linux, ffmpeg/ffplay on macOS) so the binary has no cgo audio
// dependency. A mock backend is available for CI and tests.
//
// The backend is selected automatically based on the platform, or can
// be explicitly specified via configuration.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto automatically selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendARecord uses ALSA's arecord/aplay tools (Linux).
	BackendARecord Backend = "arecord"
	// BackendFFmpeg uses ffmpeg/ffplay (macOS and others).
	BackendFFmpeg Backend = "ffmpeg"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto" (selects best available for platform)
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Default: 16000 (required by Gemini Live for input)
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `json:"channels"`

	// BufferDuration is the size of capture buffers.
	// Default: 20ms (320 samples at 16kHz)
	BufferDuration time.Duration `json:"buffer_duration"`

	// Device is the platform-specific device identifier.
	// Examples:
	//   - arecord: "hw:0,0", "default", "plughw:1,0"
	//   - ffmpeg: avfoundation input index, e.g. ":0"
	//   - mock: ignored
	Device string `json:"device"`
}

// DefaultConfig returns a Config with sensible defaults for capture.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
		Device:         "",
	}
}

// DefaultPlaybackConfig returns a Config with defaults for playback.
// Gemini Live emits 24kHz mono audio.
func DefaultPlaybackConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 24000
	return cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of samples per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (assuming int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}
