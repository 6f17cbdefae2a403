package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const geminiLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Gemini is the Transport implementation for the Gemini Live API.
// It speaks the BidiGenerateContent websocket protocol and converts
// inbound frames to ServerEvents.
type Gemini struct {
	apiKey string
	logger *slog.Logger

	wsMu      sync.Mutex
	ws        *websocket.Conn
	audioMIME string

	events chan ServerEvent

	closeOnce sync.Once
	done      chan struct{}
}

// NewGemini creates an unconnected transport.
func NewGemini(apiKey string, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		apiKey: apiKey,
		logger: logger,
		events: make(chan ServerEvent, 32),
		done:   make(chan struct{}),
	}
}

// Connect dials the Live endpoint and sends the setup message. Events
// begin flowing once the server acknowledges with setupComplete.
func (g *Gemini) Connect(ctx context.Context, setup Setup) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	url := geminiLiveURL + "?key=" + g.apiKey

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial live endpoint: %w", err)
	}

	rate := setup.InputSampleRate
	if rate <= 0 {
		rate = DefaultInputSampleRate
	}

	g.wsMu.Lock()
	g.ws = ws
	g.audioMIME = fmt.Sprintf("audio/pcm;rate=%d", rate)
	g.wsMu.Unlock()

	if err := g.sendSetup(setup); err != nil {
		_ = ws.Close()
		return fmt.Errorf("send setup: %w", err)
	}

	go g.readLoop()
	return nil
}

// Events returns the inbound event stream.
func (g *Gemini) Events() <-chan ServerEvent {
	return g.events
}

func (g *Gemini) sendSetup(setup Setup) error {
	generationConfig := map[string]any{
		"response_modalities": []string{"AUDIO"},
	}
	if setup.Voice != "" {
		generationConfig["speech_config"] = map[string]any{
			"voice_config": map[string]any{
				"prebuilt_voice_config": map[string]any{
					"voice_name": setup.Voice,
				},
			},
		}
	}

	setupBody := map[string]any{
		"model":                      setup.Model,
		"generation_config":          generationConfig,
		"input_audio_transcription":  map[string]any{},
		"output_audio_transcription": map[string]any{},
	}

	if setup.SystemPrompt != "" {
		setupBody["system_instruction"] = map[string]any{
			"parts": []map[string]any{{"text": setup.SystemPrompt}},
		}
	}

	if len(setup.Tools) > 0 {
		declarations := make([]map[string]any, 0, len(setup.Tools))
		for _, t := range setup.Tools {
			decl := map[string]any{
				"name":        t.Name,
				"description": t.Description,
			}
			if t.Parameters != nil {
				decl["parameters"] = t.Parameters
			}
			declarations = append(declarations, decl)
		}
		setupBody["tools"] = []map[string]any{
			{"function_declarations": declarations},
		}
	}

	return g.sendJSON(map[string]any{"setup": setupBody})
}

// SendAudioFrame ships one base64 PCM frame. The mime type declares
// the capture rate so the server resamples correctly.
func (g *Gemini) SendAudioFrame(data string) error {
	g.wsMu.Lock()
	mime := g.audioMIME
	g.wsMu.Unlock()
	if mime == "" {
		return ErrNotConnected
	}

	return g.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{"data": data, "mime_type": mime},
			},
		},
	})
}

// SendToolResponse returns one function result correlated by call ID.
func (g *Gemini) SendToolResponse(resp ToolResponse) error {
	return g.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{
				{
					"id":       resp.ID,
					"name":     resp.Name,
					"response": map[string]any{"result": resp.Result},
				},
			},
		},
	})
}

func (g *Gemini) sendJSON(v any) error {
	g.wsMu.Lock()
	defer g.wsMu.Unlock()
	if g.ws == nil {
		return ErrNotConnected
	}
	return g.ws.WriteJSON(v)
}

// Close shuts the connection down and lets the read loop drain out.
func (g *Gemini) Close() error {
	g.closeOnce.Do(func() {
		close(g.done)
		g.wsMu.Lock()
		if g.ws != nil {
			_ = g.ws.Close()
		}
		g.wsMu.Unlock()
	})
	return nil
}

func (g *Gemini) readLoop() {
	defer close(g.events)

	for {
		g.wsMu.Lock()
		ws := g.ws
		g.wsMu.Unlock()
		if ws == nil {
			return
		}

		_, raw, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-g.done:
				// Expected after Close; report a clean shutdown.
				g.emit(ServerEvent{Kind: EventClosed})
			default:
				g.logger.Warn("live read failed", "error", err)
				g.emit(ServerEvent{Kind: EventError, Err: err})
			}
			return
		}

		events, err := parseServerMessage(raw)
		if err != nil {
			// Skip the frame; the stream itself is still healthy.
			g.logger.Warn("skipping unparseable server frame", "error", err)
			continue
		}
		for _, ev := range events {
			if !g.emit(ev) {
				return
			}
		}
	}
}

// emit delivers one event, giving up when the transport closes.
func (g *Gemini) emit(ev ServerEvent) bool {
	select {
	case g.events <- ev:
		return true
	case <-g.done:
		return false
	}
}

// serverMessage is the subset of the BidiGenerateContent frame the
// session consumes.
type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`

	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"modelTurn"`
		Interrupted        bool `json:"interrupted"`
		InputTranscription *struct {
			Text string `json:"text"`
		} `json:"inputTranscription"`
		OutputTranscription *struct {
			Text string `json:"text"`
		} `json:"outputTranscription"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent"`

	ToolCall *struct {
		FunctionCalls []struct {
			ID   string         `json:"id"`
			Name string         `json:"name"`
			Args map[string]any `json:"args"`
		} `json:"functionCalls"`
	} `json:"toolCall"`
}

// parseServerMessage converts one wire frame into zero or more events
// in their processing order.
func parseServerMessage(raw []byte) ([]ServerEvent, error) {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal server message: %w", err)
	}

	var events []ServerEvent

	if msg.SetupComplete != nil {
		events = append(events, ServerEvent{Kind: EventSetupComplete})
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			calls = append(calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		events = append(events, ServerEvent{Kind: EventToolCall, Calls: calls})
	}

	sc := msg.ServerContent
	if sc == nil {
		return events, nil
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil {
				continue
			}
			mime := part.InlineData.MimeType
			switch {
			case strings.HasPrefix(mime, "audio/"):
				events = append(events, ServerEvent{Kind: EventAudio, Audio: part.InlineData.Data})
			case strings.HasPrefix(mime, "image/"):
				events = append(events, ServerEvent{
					Kind:      EventImage,
					ImageMIME: mime,
					ImageData: part.InlineData.Data,
				})
			}
		}
	}

	if sc.Interrupted {
		events = append(events, ServerEvent{Kind: EventInterrupted})
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, ServerEvent{
			Kind:    EventTranscript,
			Speaker: SpeakerHuman,
			Text:    sc.InputTranscription.Text,
		})
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, ServerEvent{
			Kind:    EventTranscript,
			Speaker: SpeakerAssistant,
			Text:    sc.OutputTranscription.Text,
		})
	}

	if sc.TurnComplete {
		events = append(events, ServerEvent{Kind: EventTurnComplete})
	}

	return events, nil
}
