package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTransport feeds scripted events and records outbound traffic.
type fakeTransport struct {
	mu         sync.Mutex
	events     chan ServerEvent
	frames     []string
	responses  []ToolResponse
	closed     bool
	connectErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan ServerEvent, 16)}
}

func (f *fakeTransport) Connect(ctx context.Context, setup Setup) error {
	return f.connectErr
}

func (f *fakeTransport) Events() <-chan ServerEvent { return f.events }

func (f *fakeTransport) SendAudioFrame(data string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeTransport) SendToolResponse(resp ToolResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) sentResponses() []ToolResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ToolResponse, len(f.responses))
	copy(out, f.responses)
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	return cfg
}

func newTestSession(t *testing.T, transport Transport, tools []Tool) (*Session, chan State) {
	t.Helper()

	states := make(chan State, 16)
	s, err := NewSession(testConfig(), transport, nil, &fakeOutput{}, tools, nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	s.OnState = func(st State) { states <- st }
	return s, states
}

func waitState(t *testing.T, states chan State, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-states:
			if st == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if s.State() != StateIdle {
		t.Fatalf("expected idle before start, got %v", s.State())
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitState(t, states, StateConnecting)

	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitState(t, states, StateClosed)

	if s.State() != StateClosed {
		t.Errorf("expected closed, got %v", s.State())
	}
}

func TestSessionStartTwice(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitState(t, states, StateConnecting)

	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start should return ErrAlreadyStarted, got %v", err)
	}

	_ = s.Stop()
}

func TestSessionStopIdempotent(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitState(t, states, StateConnecting)

	if err := s.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
	if s.State() != StateClosed {
		t.Errorf("expected closed, got %v", s.State())
	}
}

func TestSessionConnectFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.connectErr = errors.New("refused")
	s, _ := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start should surface the connect error")
	}
	if s.State() != StateError {
		t.Errorf("expected error state, got %v", s.State())
	}
}

func TestSessionRestartWithFreshSession(t *testing.T) {
	first := newFakeTransport()
	s1, states1 := newTestSession(t, first, nil)

	if err := s1.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states1, StateOpen)

	_ = s1.Stop()
	waitState(t, states1, StateClosed)

	// The old session is terminal; activity continues on a new one only.
	if err := s1.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("restarting a closed session should fail, got %v", err)
	}

	second := newFakeTransport()
	s2, states2 := newTestSession(t, second, nil)
	if err := s2.Start(context.Background()); err != nil {
		t.Fatalf("fresh session Start failed: %v", err)
	}
	second.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states2, StateOpen)
	_ = s2.Stop()
}

func TestSessionTranscriptOrdering(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	var mu sync.Mutex
	var turns []Turn
	done := make(chan struct{}, 4)
	s.OnTurn = func(turn Turn) {
		mu.Lock()
		turns = append(turns, turn)
		mu.Unlock()
		done <- struct{}{}
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventTranscript, Speaker: SpeakerHuman, Text: "what time is it"}
	transport.events <- ServerEvent{Kind: EventTranscript, Speaker: SpeakerAssistant, Text: "it is "}
	transport.events <- ServerEvent{Kind: EventTranscript, Speaker: SpeakerAssistant, Text: "noon"}
	transport.events <- ServerEvent{Kind: EventTurnComplete}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for turns")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Speaker != SpeakerHuman || turns[0].Text != "what time is it" {
		t.Errorf("first turn should be the user's: %+v", turns[0])
	}
	if turns[1].Speaker != SpeakerAssistant || turns[1].Text != "it is noon" {
		t.Errorf("second turn should be the assistant's: %+v", turns[1])
	}

	_ = s.Stop()
}

func TestSessionToolCallRoundTrip(t *testing.T) {
	transport := newFakeTransport()
	tools := []Tool{{
		Name: "ping",
		Handler: func(args map[string]any) (string, error) {
			return "pong", nil
		},
	}}
	s, states := newTestSession(t, transport, tools)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventToolCall, Calls: []ToolCall{
		{ID: "c1", Name: "ping"},
		{ID: "c2", Name: "missing"},
	}}

	deadline := time.After(2 * time.Second)
	for {
		if len(transport.sentResponses()) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for tool responses")
		case <-time.After(10 * time.Millisecond):
		}
	}

	responses := transport.sentResponses()
	if responses[0].ID != "c1" || responses[0].Result != "pong" {
		t.Errorf("unexpected first response: %+v", responses[0])
	}
	if responses[1].ID != "c2" || responses[1].Result != "Tool not recognized." {
		t.Errorf("unexpected second response: %+v", responses[1])
	}

	_ = s.Stop()
}

func TestSessionMalformedAudioDropped(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventAudio, Audio: "%%%not-base64%%%"}
	transport.events <- ServerEvent{Kind: EventAudio, Audio: EncodeAudio([]float32{0.1, 0.2})}

	deadline := time.After(2 * time.Second)
	for s.sched.ActiveCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("valid chunk after a malformed one should still schedule")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if s.State() != StateOpen {
		t.Errorf("malformed audio must not kill the session, state %v", s.State())
	}

	_ = s.Stop()
}

func TestSessionInterruptCutsPlayback(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventAudio, Audio: EncodeAudio(make([]float32, 24000))}

	deadline := time.After(2 * time.Second)
	for !s.Speaking() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for playback to start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	transport.events <- ServerEvent{Kind: EventInterrupted}

	deadline = time.After(2 * time.Second)
	for s.Speaking() {
		select {
		case <-deadline:
			t.Fatal("interrupt should stop playback")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := s.sched.Cursor(); got != 0 {
		t.Errorf("cursor should reset after interrupt, got %f", got)
	}

	_ = s.Stop()
}

func TestSessionRemoteClose(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventClosed}
	waitState(t, states, StateClosed)
}

func TestSessionTransportError(t *testing.T) {
	transport := newFakeTransport()
	s, states := newTestSession(t, transport, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	transport.events <- ServerEvent{Kind: EventSetupComplete}
	waitState(t, states, StateOpen)

	transport.events <- ServerEvent{Kind: EventError, Err: errors.New("broken pipe")}
	waitState(t, states, StateError)
}

func TestNewSessionRejectsMissingKey(t *testing.T) {
	cfg := DefaultConfig()
	_, err := NewSession(cfg, newFakeTransport(), nil, &fakeOutput{}, nil, nil)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
