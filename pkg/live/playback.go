package live

import (
	"sync"

	"github.com/vbharat/go-buddy/pkg/audioio"
)

// Scheduler keeps inbound audio gapless and strictly ordered.
//
// Each buffer starts at max(now, cursor), where cursor is the end time
// of the previous buffer on the output clock. Chunks arriving faster
// than real time queue back-to-back; chunks arriving after a silence
// start immediately. The cursor only ever moves forward, except for
// Interrupt which resets it to zero.
type Scheduler struct {
	out audioio.Output

	mu     sync.Mutex
	cursor float64
	nextID uint64
	active map[uint64]func()

	onSpeaking func(bool)
}

// NewScheduler creates a scheduler over the given output device.
func NewScheduler(out audioio.Output) *Scheduler {
	return &Scheduler{
		out:    out,
		active: make(map[uint64]func()),
	}
}

// OnSpeaking sets the callback fired when the active set transitions
// between empty and non-empty.
func (s *Scheduler) OnSpeaking(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSpeaking = fn
}

// Schedule queues one decoded buffer for playback.
func (s *Scheduler) Schedule(buf *PlayableBuffer) error {
	s.mu.Lock()

	start := s.out.Now()
	if s.cursor > start {
		start = s.cursor
	}

	id := s.nextID
	s.nextID++

	stop, err := s.out.PlayAt(buf.Samples, buf.SampleRate, start, func() {
		s.finished(id)
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	wasEmpty := len(s.active) == 0
	s.active[id] = stop
	s.cursor = start + buf.Duration()
	fn := s.onSpeaking
	s.mu.Unlock()

	if wasEmpty && fn != nil {
		fn(true)
	}
	return nil
}

// finished removes a unit that completed naturally.
func (s *Scheduler) finished(id uint64) {
	s.mu.Lock()
	if _, ok := s.active[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.active, id)
	empty := len(s.active) == 0
	fn := s.onSpeaking
	s.mu.Unlock()

	if empty && fn != nil {
		fn(false)
	}
}

// Interrupt stops every active unit immediately, clears the set, and
// resets the cursor to zero. Units are cut mid-playback, not drained.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stops := make([]func(), 0, len(s.active))
	for id, stop := range s.active {
		stops = append(stops, stop)
		delete(s.active, id)
	}
	hadActive := len(stops) > 0
	s.cursor = 0
	fn := s.onSpeaking
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	if hadActive && fn != nil {
		fn(false)
	}
}

// Speaking reports whether any unit is currently active.
func (s *Scheduler) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// Cursor returns the earliest permissible start time for the next unit.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// ActiveCount returns the number of units currently scheduled or playing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
