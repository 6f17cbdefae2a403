package live

import (
	"testing"
)

func TestParseServerMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []EventKind
	}{
		{
			name: "setup complete",
			raw:  `{"setupComplete":{}}`,
			want: []EventKind{EventSetupComplete},
		},
		{
			name: "audio part",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAAA"}}]}}}`,
			want: []EventKind{EventAudio},
		},
		{
			name: "image part",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"image/png","data":"iVBOR"}}]}}}`,
			want: []EventKind{EventImage},
		},
		{
			name: "mixed parts preserve order",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"AAAA"}},{"inlineData":{"mimeType":"image/jpeg","data":"BBBB"}}]}}}`,
			want: []EventKind{EventAudio, EventImage},
		},
		{
			name: "tool call",
			raw:  `{"toolCall":{"functionCalls":[{"id":"c1","name":"listFiles","args":{"dirPath":"/tmp"}}]}}`,
			want: []EventKind{EventToolCall},
		},
		{
			name: "interrupted",
			raw:  `{"serverContent":{"interrupted":true}}`,
			want: []EventKind{EventInterrupted},
		},
		{
			name: "input transcription",
			raw:  `{"serverContent":{"inputTranscription":{"text":"hello"}}}`,
			want: []EventKind{EventTranscript},
		},
		{
			name: "output transcription",
			raw:  `{"serverContent":{"outputTranscription":{"text":"hi there"}}}`,
			want: []EventKind{EventTranscript},
		},
		{
			name: "turn complete",
			raw:  `{"serverContent":{"turnComplete":true}}`,
			want: []EventKind{EventTurnComplete},
		},
		{
			name: "combined frame in processing order",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"AAAA"}}]},"outputTranscription":{"text":"ok"},"turnComplete":true}}`,
			want: []EventKind{EventAudio, EventTranscript, EventTurnComplete},
		},
		{
			name: "empty transcription ignored",
			raw:  `{"serverContent":{"inputTranscription":{"text":""}}}`,
			want: nil,
		},
		{
			name: "unknown fields ignored",
			raw:  `{"usageMetadata":{"totalTokenCount":42}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := parseServerMessage([]byte(tt.raw))
			if err != nil {
				t.Fatalf("parseServerMessage failed: %v", err)
			}
			if len(events) != len(tt.want) {
				t.Fatalf("expected %d events, got %d: %+v", len(tt.want), len(events), events)
			}
			for i, kind := range tt.want {
				if events[i].Kind != kind {
					t.Errorf("event %d: got %v, want %v", i, events[i].Kind, kind)
				}
			}
		})
	}
}

func TestParseServerMessageMalformed(t *testing.T) {
	if _, err := parseServerMessage([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestParseServerMessageToolCallFields(t *testing.T) {
	raw := `{"toolCall":{"functionCalls":[{"id":"c1","name":"readFile","args":{"filePath":"/etc/hosts"}},{"id":"c2","name":"openBrowser","args":{"url":"https://example.com"}}]}}`

	events, err := parseServerMessage([]byte(raw))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	calls := events[0].Calls
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].ID != "c1" || calls[0].Name != "readFile" {
		t.Errorf("unexpected first call: %+v", calls[0])
	}
	if got, _ := calls[0].Args["filePath"].(string); got != "/etc/hosts" {
		t.Errorf("args not parsed: %v", calls[0].Args)
	}
	if calls[1].ID != "c2" || calls[1].Name != "openBrowser" {
		t.Errorf("unexpected second call: %+v", calls[1])
	}
}

func TestParseServerMessageTranscriptSpeakers(t *testing.T) {
	events, err := parseServerMessage([]byte(`{"serverContent":{"inputTranscription":{"text":"q"},"outputTranscription":{"text":"a"}}}`))
	if err != nil {
		t.Fatalf("parseServerMessage failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Speaker != SpeakerHuman || events[0].Text != "q" {
		t.Errorf("unexpected input transcript event: %+v", events[0])
	}
	if events[1].Speaker != SpeakerAssistant || events[1].Text != "a" {
		t.Errorf("unexpected output transcript event: %+v", events[1])
	}
}
