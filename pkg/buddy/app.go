// Package buddy orchestrates the desktop companion: persona selection,
// the knowledge base, live voice sessions, and conversation history.
package buddy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vbharat/go-buddy/internal/config"
	"github.com/vbharat/go-buddy/pkg/audioio"
	"github.com/vbharat/go-buddy/pkg/desktop"
	"github.com/vbharat/go-buddy/pkg/live"
	"github.com/vbharat/go-buddy/pkg/ollama"
)

// maxHistory bounds the in-memory conversation history.
const maxHistory = 200

// Status is the dashboard snapshot of the companion's state.
type Status struct {
	State    string `json:"state"`
	Speaking bool   `json:"speaking"`
	Persona  string `json:"persona"`
	Voice    string `json:"voice"`
	Model    string `json:"model"`
}

// App wires the companion's components together. One App owns at most
// one live session at a time; starting a new session stops the old one.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	provider  *desktop.Provider
	knowledge *Knowledge
	ollama    *ollama.Client

	// newTransport builds the session transport. Swappable for tests.
	newTransport func() live.Transport

	// startMu serializes session start/stop end to end. Separate from
	// mu so session callbacks never contend with a start in progress.
	startMu sync.Mutex

	mu      sync.Mutex
	session *live.Session
	persona Persona
	state   live.State
	history []live.Turn

	// Callbacks for the dashboard, set before the first session.
	OnTurn    func(live.Turn)
	OnPartial func(live.Speaker, string)
	OnStatus  func(Status)
}

// New creates the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	persona, err := PersonaByID(cfg.Persona)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		provider:  desktop.NewProvider(logger),
		knowledge: NewKnowledgeWithFile(cfg.KnowledgeFile),
		ollama:    ollama.NewClient(cfg.OllamaURL),
		persona:   persona,
		state:     live.StateIdle,
	}
	a.newTransport = func() live.Transport {
		return live.NewGemini(cfg.GoogleAPIKey, logger)
	}
	return a, nil
}

// Provider returns the desktop filesystem provider.
func (a *App) Provider() *desktop.Provider { return a.provider }

// Knowledge returns the document store.
func (a *App) Knowledge() *Knowledge { return a.knowledge }

// Persona returns the currently selected persona.
func (a *App) Persona() Persona {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persona
}

// Status returns the dashboard snapshot.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	speaking := false
	if a.session != nil {
		speaking = a.session.Speaking()
	}
	return Status{
		State:    a.state.String(),
		Speaking: speaking,
		Persona:  a.persona.ID,
		Voice:    a.voiceLocked(),
		Model:    a.cfg.LiveModel,
	}
}

// History returns the accumulated conversation turns.
func (a *App) History() []live.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]live.Turn, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the accumulated conversation.
func (a *App) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// StartSession begins a live voice session with the given persona.
// An empty personaID keeps the current one. Any running session is
// stopped first so only one is ever active.
func (a *App) StartSession(ctx context.Context, personaID string) error {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if personaID != "" {
		persona, err := PersonaByID(personaID)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.persona = persona
		a.mu.Unlock()
	}

	if err := a.stopCurrent(); err != nil {
		return err
	}

	a.mu.Lock()
	persona := a.persona
	voice := a.voiceLocked()
	a.mu.Unlock()

	cfg := live.DefaultConfig()
	cfg.APIKey = a.cfg.GoogleAPIKey
	cfg.Model = a.cfg.LiveModel
	cfg.Voice = voice
	cfg.SystemPrompt = persona.SystemInstruction(a.knowledge.ActiveContext())
	cfg.Debug = a.cfg.Debug

	source := a.buildSource()
	out, err := audioio.NewOutput(a.playbackConfig(), a.logger)
	if err != nil {
		return fmt.Errorf("create audio output: %w", err)
	}

	session, err := live.NewSession(cfg, a.newTransport(), source, out, desktop.Tools(a.provider), a.logger)
	if err != nil {
		return err
	}

	session.OnState = func(st live.State) {
		a.mu.Lock()
		a.state = st
		a.mu.Unlock()
		a.pushStatus()
	}
	session.OnSpeaking = func(bool) { a.pushStatus() }
	session.OnTurn = func(turn live.Turn) {
		a.mu.Lock()
		a.history = append(a.history, turn)
		if len(a.history) > maxHistory {
			a.history = a.history[len(a.history)-maxHistory:]
		}
		fn := a.OnTurn
		a.mu.Unlock()
		if fn != nil {
			fn(turn)
		}
	}
	session.OnPartial = func(speaker live.Speaker, text string) {
		a.mu.Lock()
		fn := a.OnPartial
		a.mu.Unlock()
		if fn != nil {
			fn(speaker, text)
		}
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	a.logger.Info("starting live session", "persona", persona.ID, "voice", voice)
	return session.Start(ctx)
}

// StopSession ends the running session, if any.
func (a *App) StopSession() error {
	a.startMu.Lock()
	defer a.startMu.Unlock()
	return a.stopCurrent()
}

// stopCurrent detaches and stops the installed session. Caller holds
// startMu.
func (a *App) stopCurrent() error {
	a.mu.Lock()
	session := a.session
	a.session = nil
	a.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Stop()
}

// GenerateLocal runs a one-shot completion against the local Ollama
// server, using the persona's system prompt. It is the offline path
// when no cloud key is configured.
func (a *App) GenerateLocal(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	persona := a.persona
	a.mu.Unlock()

	system := persona.SystemInstruction(a.knowledge.ActiveContext())
	return a.ollama.Generate(ctx, a.cfg.OllamaModel, prompt, system)
}

// CheckOllama reports whether the local fallback model is reachable.
func (a *App) CheckOllama(ctx context.Context) error {
	return a.ollama.CheckConnection(ctx)
}

// Shutdown stops the session and releases resources.
func (a *App) Shutdown() error {
	return a.StopSession()
}

func (a *App) pushStatus() {
	a.mu.Lock()
	fn := a.OnStatus
	a.mu.Unlock()
	if fn != nil {
		fn(a.Status())
	}
}

// voiceLocked resolves the effective voice; the config override wins
// over the persona default. Caller holds a.mu.
func (a *App) voiceLocked() string {
	if a.cfg.Voice != "" {
		return a.cfg.Voice
	}
	return a.persona.Voice
}

func (a *App) buildSource() audioio.Source {
	cfg := audioio.DefaultConfig()
	cfg.Backend = audioio.Backend(a.cfg.AudioBackend)
	cfg.Device = a.cfg.MicDevice

	source, err := audioio.NewSource(cfg, a.logger)
	if err != nil {
		// No microphone is a degraded session, not a failed one.
		a.logger.Warn("audio source unavailable", "error", err)
		return nil
	}
	return source
}

func (a *App) playbackConfig() audioio.Config {
	cfg := audioio.DefaultPlaybackConfig()
	cfg.Backend = audioio.Backend(a.cfg.AudioBackend)
	return cfg
}
