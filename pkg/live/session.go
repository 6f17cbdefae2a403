package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vbharat/go-buddy/pkg/audioio"
)

// Common errors returned by sessions.
var (
	ErrNotConnected   = errors.New("live: session not connected")
	ErrAlreadyStarted = errors.New("live: session already started")
	ErrMissingAPIKey  = errors.New("live: missing API key")
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateIdle is the initial state before Start.
	StateIdle State = iota

	// StateConnecting means the transport dial is in flight.
	StateConnecting

	// StateOpen means the remote accepted the session; capture runs.
	StateOpen

	// StateClosed is the terminal state after a clean stop or remote close.
	StateClosed

	// StateError is the terminal state after a transport failure.
	StateError
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Setup carries the session parameters a transport announces at connect.
type Setup struct {
	Model           string
	Voice           string
	SystemPrompt    string
	Tools           []Tool
	InputSampleRate int
}

// Transport is the duplex channel to the remote voice model. The wire
// schema belongs to the transport; the session only sees ServerEvents.
type Transport interface {
	// Connect dials the remote and announces the session setup.
	Connect(ctx context.Context, setup Setup) error

	// Events returns the inbound event stream. The channel closes when
	// the transport shuts down.
	Events() <-chan ServerEvent

	// SendAudioFrame sends one encoded microphone frame.
	SendAudioFrame(data string) error

	// SendToolResponse returns a correlated tool result to the model.
	SendToolResponse(resp ToolResponse) error

	// Close tears the connection down. Safe to call multiple times.
	Close() error
}

// Session owns one bidirectional connection to the remote voice model
// and wires capture, playback, tools, and transcription together.
// All playback and transcript state is scoped to the Session; nothing
// survives it.
type Session struct {
	cfg    Config
	logger *slog.Logger

	transport Transport
	source    audioio.Source // nil when no microphone is available
	out       audioio.Output

	sched      *Scheduler
	acc        *Accumulator
	dispatcher *Dispatcher

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	stopped bool

	// Callbacks, set before Start.
	OnState    func(State)
	OnSpeaking func(bool)
	OnTurn     func(Turn)
	OnPartial  func(Speaker, string)
}

// NewSession creates a session. The source may be nil: the session
// then receives audio and tool calls but sends no voice input.
func NewSession(cfg Config, transport Transport, source audioio.Source, out audioio.Output, tools []Tool, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:        cfg,
		logger:     logger,
		transport:  transport,
		source:     source,
		out:        out,
		sched:      NewScheduler(out),
		acc:        NewAccumulator(),
		dispatcher: NewDispatcher(tools),
	}

	s.sched.OnSpeaking(func(speaking bool) {
		if s.OnSpeaking != nil {
			s.OnSpeaking(speaking)
		}
	})
	s.acc.OnTurn(func(turn Turn) {
		turnsTotal.WithLabelValues(string(turn.Speaker)).Inc()
		if s.OnTurn != nil {
			s.OnTurn(turn)
		}
	})
	s.acc.OnPartial(func(speaker Speaker, text string) {
		if s.OnPartial != nil {
			s.OnPartial(speaker, text)
		}
	})

	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Speaking reports whether assistant audio is currently playing.
func (s *Session) Speaking() bool {
	return s.sched.Speaking()
}

// Start dials the transport and begins processing events. Capture does
// not start here; it starts when the remote acknowledges the setup.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateConnecting
	ctx, s.cancel = context.WithCancel(ctx)
	fn := s.OnState
	s.mu.Unlock()

	sessionsActive.Inc()
	if fn != nil {
		fn(StateConnecting)
	}

	setup := Setup{
		Model:           s.cfg.Model,
		Voice:           s.cfg.Voice,
		SystemPrompt:    s.cfg.SystemPrompt,
		Tools:           s.dispatcher.Tools(),
		InputSampleRate: s.cfg.InputSampleRate,
	}

	if err := s.transport.Connect(ctx, setup); err != nil {
		s.closeWith(StateError)
		return fmt.Errorf("live: connect: %w", err)
	}

	go s.eventLoop(ctx)
	return nil
}

// Stop ends the session. It is idempotent: stopping an already-stopped
// session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.closeWith(StateClosed)
	return nil
}

// eventLoop is the single dispatch point for inbound events.
func (s *Session) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.transport.Events():
			if !ok {
				s.closeWith(StateClosed)
				return
			}
			s.handleEvent(ctx, ev)
			if ev.Kind == EventClosed || ev.Kind == EventError {
				return
			}
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev ServerEvent) {
	if s.cfg.Debug {
		s.logger.Debug("session event", "kind", ev.Kind.String())
	}

	switch ev.Kind {
	case EventSetupComplete:
		s.mu.Lock()
		connecting := s.state == StateConnecting
		if connecting {
			s.state = StateOpen
		}
		fn := s.OnState
		s.mu.Unlock()

		if connecting {
			s.logger.Info("session open", "model", s.cfg.Model)
			if fn != nil {
				fn(StateOpen)
			}
			go s.runCapture(ctx)
		}

	case EventAudio:
		buf, err := DecodeAudio(ev.Audio, s.cfg.OutputSampleRate)
		if err != nil {
			decodeErrors.Inc()
			s.logger.Warn("dropping malformed audio chunk", "error", err)
			return
		}
		if err := s.sched.Schedule(buf); err != nil {
			s.logger.Warn("failed to schedule audio", "error", err)
			return
		}
		chunksScheduled.Inc()

	case EventImage:
		s.acc.AttachImage("data:" + ev.ImageMIME + ";base64," + ev.ImageData)

	case EventToolCall:
		for _, resp := range s.dispatcher.DispatchBatch(ev.Calls) {
			if err := s.transport.SendToolResponse(resp); err != nil {
				s.logger.Warn("failed to send tool response", "tool", resp.Name, "error", err)
			}
		}

	case EventInterrupted:
		interruptions.Inc()
		s.sched.Interrupt()

	case EventTranscript:
		s.acc.Update(ev.Speaker, ev.Text, ev.Final)

	case EventTurnComplete:
		// The model's turn ending also closes out whatever the user
		// said; the user turn is committed first to keep history order.
		s.acc.Update(SpeakerHuman, "", true)
		s.acc.Update(SpeakerAssistant, "", true)

	case EventClosed:
		s.closeWith(StateClosed)

	case EventError:
		s.logger.Error("session transport error", "error", ev.Err)
		s.closeWith(StateError)
	}
}

// closeWith performs teardown exactly once and lands in a terminal
// state. Safe to call from Stop, the event loop, or a failed Start.
func (s *Session) closeWith(final State) {
	s.mu.Lock()
	prev := s.state
	if prev == StateClosed || prev == StateError {
		s.mu.Unlock()
		return
	}
	s.state = final
	cancel := s.cancel
	s.cancel = nil
	fn := s.OnState
	s.mu.Unlock()

	if prev == StateConnecting || prev == StateOpen {
		if cancel != nil {
			cancel()
		}
		if s.source != nil {
			_ = s.source.Stop()
		}
		s.sched.Interrupt()
		s.acc.Reset()
		_ = s.transport.Close()
		_ = s.out.Close()
		sessionsActive.Dec()
	}

	s.logger.Info("session closed", "state", final.String())
	if fn != nil {
		fn(final)
	}
}
