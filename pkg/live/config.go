package live

import "errors"

// Defaults for Gemini Live sessions.
const (
	// DefaultModel is the Gemini Live model identifier.
	DefaultModel = "models/gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is the prebuilt voice used when none is configured.
	DefaultVoice = "Kore"

	// DefaultInputSampleRate is the microphone rate the model expects.
	DefaultInputSampleRate = 16000

	// DefaultOutputSampleRate is the rate the model emits audio at.
	// It is declared, not measured from inbound chunks.
	DefaultOutputSampleRate = 24000

	// DefaultFrameSamples is the outbound capture frame size.
	DefaultFrameSamples = 4096
)

// Config holds all tunable parameters for a live session.
type Config struct {
	// APIKey authenticates against the remote model.
	APIKey string

	// Model is the remote model identifier.
	Model string

	// Voice is the prebuilt voice name (e.g. "Kore", "Puck").
	Voice string

	// SystemPrompt is the system instruction sent at connect time.
	SystemPrompt string

	// InputSampleRate is the outbound capture rate in Hz.
	InputSampleRate int

	// OutputSampleRate is the declared inbound playback rate in Hz.
	OutputSampleRate int

	// FrameSamples is the number of samples per outbound frame.
	FrameSamples int

	// Debug enables verbose session logging.
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		Voice:            DefaultVoice,
		InputSampleRate:  DefaultInputSampleRate,
		OutputSampleRate: DefaultOutputSampleRate,
		FrameSamples:     DefaultFrameSamples,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.InputSampleRate <= 0 {
		return errors.New("live: input sample rate must be positive")
	}
	if c.OutputSampleRate <= 0 {
		return errors.New("live: output sample rate must be positive")
	}
	if c.FrameSamples <= 0 {
		return errors.New("live: frame samples must be positive")
	}
	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithVoice returns a copy with the voice set.
func (c Config) WithVoice(voice string) Config {
	c.Voice = voice
	return c
}

// WithDebug returns a copy with debug enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
