package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies one side of the conversation.
type Speaker string

const (
	// SpeakerHuman is the user.
	SpeakerHuman Speaker = "user"

	// SpeakerAssistant is the companion.
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one finalized utterance committed to history.
type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Accumulator merges streaming partial transcripts into turns.
//
// The two speakers accumulate differently: human partials REPLACE the
// pending slot (the transport resends its best current guess each
// time), assistant partials are APPENDED deltas. The asymmetry mirrors
// how each upstream transcription stream is produced and is preserved
// deliberately.
type Accumulator struct {
	mu            sync.Mutex
	humanPartial  string
	assistantText string
	pendingImage  string

	onTurn    func(Turn)
	onPartial func(Speaker, string)
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// OnTurn sets the callback invoked once per completed turn.
func (a *Accumulator) OnTurn(fn func(Turn)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTurn = fn
}

// OnPartial sets the callback invoked with in-progress text.
func (a *Accumulator) OnPartial(fn func(Speaker, string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPartial = fn
}

// Update feeds one transcript message into the accumulator. A final
// flag emits the pending slot as a completed Turn and clears it; empty
// slots complete silently.
func (a *Accumulator) Update(speaker Speaker, text string, final bool) {
	a.mu.Lock()

	var turn *Turn
	var partial string

	switch speaker {
	case SpeakerHuman:
		if text != "" {
			a.humanPartial = text
		}
		if final {
			if a.humanPartial != "" {
				turn = a.newTurnLocked(speaker, a.humanPartial, "")
			}
			a.humanPartial = ""
		}
		partial = a.humanPartial
	case SpeakerAssistant:
		a.assistantText += text
		if final {
			if a.assistantText != "" || a.pendingImage != "" {
				turn = a.newTurnLocked(speaker, a.assistantText, a.pendingImage)
			}
			a.assistantText = ""
			a.pendingImage = ""
		}
		partial = a.assistantText
	default:
		a.mu.Unlock()
		return
	}

	onTurn := a.onTurn
	onPartial := a.onPartial
	a.mu.Unlock()

	if !final && onPartial != nil {
		onPartial(speaker, partial)
	}
	if turn != nil && onTurn != nil {
		onTurn(*turn)
	}
}

// AttachImage stages an inline image; it rides along with whichever
// assistant turn completes next rather than forming its own turn.
func (a *Accumulator) AttachImage(dataURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingImage = dataURL
}

// Partial returns the current in-progress text for a speaker.
func (a *Accumulator) Partial(speaker Speaker) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if speaker == SpeakerHuman {
		return a.humanPartial
	}
	return a.assistantText
}

// Reset abandons all pending accumulation without emitting turns.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.humanPartial = ""
	a.assistantText = ""
	a.pendingImage = ""
}

func (a *Accumulator) newTurnLocked(speaker Speaker, text, imageURL string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		ImageURL:  imageURL,
		Timestamp: time.Now(),
	}
}
