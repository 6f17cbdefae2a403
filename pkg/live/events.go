package live

// EventKind discriminates inbound transport events.
type EventKind int

const (
	// EventSetupComplete signals the remote accepted the session.
	EventSetupComplete EventKind = iota

	// EventAudio carries a base64 PCM16 audio chunk.
	EventAudio

	// EventImage carries an inline generated image.
	EventImage

	// EventToolCall carries a batch of tool invocations.
	EventToolCall

	// EventInterrupted signals barge-in: the user spoke over playback.
	EventInterrupted

	// EventTranscript carries a partial transcript for one speaker.
	EventTranscript

	// EventTurnComplete signals the model finished its turn.
	EventTurnComplete

	// EventClosed signals the remote closed the connection.
	EventClosed

	// EventError carries a transport-level failure.
	EventError
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSetupComplete:
		return "setup_complete"
	case EventAudio:
		return "audio"
	case EventImage:
		return "image"
	case EventToolCall:
		return "tool_call"
	case EventInterrupted:
		return "interrupted"
	case EventTranscript:
		return "transcript"
	case EventTurnComplete:
		return "turn_complete"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// ServerEvent is one inbound message from the transport, reduced to
// the fields the session needs. The fields beyond Kind are populated
// according to the kind; the session dispatches on Kind alone.
type ServerEvent struct {
	Kind EventKind

	// Audio payload (EventAudio), base64 PCM16 little-endian.
	Audio string

	// Image payload (EventImage).
	ImageMIME string
	ImageData string

	// Tool call batch (EventToolCall).
	Calls []ToolCall

	// Transcript fields (EventTranscript).
	Speaker Speaker
	Text    string
	Final   bool

	// Transport failure (EventError).
	Err error
}
