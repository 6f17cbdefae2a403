// Package config loads application configuration from the environment.
// A local .env file is honored when present so development machines do
// not need exported variables.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings for the buddy application.
// Command-line flags in cmd/buddy may override individual fields.
type Config struct {
	// GoogleAPIKey authenticates the Gemini Live websocket.
	// Sessions cannot start without it, but the app itself can.
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`

	// LiveModel is the Gemini Live model identifier.
	LiveModel string `envconfig:"LIVE_MODEL" default:"models/gemini-2.5-flash-native-audio-preview-09-2025"`

	// Voice overrides the persona's default prebuilt voice when set.
	Voice string `envconfig:"LIVE_VOICE"`

	// Persona selects the companion personality ("sakura" or "haruki").
	Persona string `envconfig:"PERSONA" default:"sakura"`

	// HTTPPort is the port for the control/dashboard server.
	HTTPPort int `envconfig:"HTTP_PORT" default:"8181"`

	// AudioBackend selects the capture backend ("auto", "arecord", "ffmpeg", "mock").
	AudioBackend string `envconfig:"AUDIO_BACKEND" default:"auto"`

	// MicDevice is the platform-specific capture device identifier.
	MicDevice string `envconfig:"MIC_DEVICE"`

	// OllamaURL is the base URL of the local fallback model.
	OllamaURL string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// OllamaModel is the model name used for local generation.
	OllamaModel string `envconfig:"OLLAMA_MODEL" default:"llama3"`

	// KnowledgeFile is where the knowledge base persists.
	KnowledgeFile string `envconfig:"KNOWLEDGE_FILE" default:"buddy_knowledge.json"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Debug enables verbose session logging.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("buddy", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
