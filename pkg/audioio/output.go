package audioio

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Output plays scheduled PCM buffers against a device clock.
//
// Now returns seconds on the output clock, monotonic from the moment
// the output was created. PlayAt schedules the samples to begin at the
// given clock time and invokes done when playback of that buffer
// completes naturally. The returned stop function cancels the buffer
// immediately; done is never invoked after stop.
type Output interface {
	Now() float64
	PlayAt(samples []float32, sampleRate int, when float64, done func()) (stop func(), err error)
	Close() error
}

// playUnit tracks one scheduled buffer inside a Player.
type playUnit struct {
	mu      sync.Mutex
	written bool
	stopped bool
	write   *time.Timer
	done    *time.Timer
}

// Player is an exec-backed Output. It streams raw PCM16 to aplay on
// Linux or ffplay elsewhere, and emulates schedule-at semantics with
// timers against a wall-clock device time.
type Player struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	started time.Time
	closed  bool
}

// NewPlayer creates a playback output for the configured sample rate.
// The underlying process is launched lazily on the first PlayAt.
func NewPlayer(cfg Config, logger *slog.Logger) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		cfg:     cfg,
		logger:  logger,
		started: time.Now(),
	}, nil
}

// Now returns seconds elapsed on the playback clock.
func (p *Player) Now() float64 {
	return time.Since(p.started).Seconds()
}

// PlayAt schedules samples to play at the given clock time.
func (p *Player) PlayAt(samples []float32, sampleRate int, when float64, done func()) (func(), error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, io.ErrClosedPipe
	}
	if p.cmd == nil {
		if err := p.startLocked(); err != nil {
			p.mu.Unlock()
			return nil, err
		}
	}
	p.mu.Unlock()

	pcm := FloatsToSamples(samples)
	if sampleRate != p.cfg.SampleRate {
		pcm = Resample(pcm, sampleRate, p.cfg.SampleRate)
	}
	data := SamplesToBytes(pcm)
	duration := time.Duration(float64(len(pcm)) / float64(p.cfg.SampleRate) * float64(time.Second))

	delay := time.Duration((when - p.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	u := &playUnit{}
	u.write = time.AfterFunc(delay, func() {
		u.mu.Lock()
		if u.stopped {
			u.mu.Unlock()
			return
		}
		u.written = true
		u.mu.Unlock()

		if err := p.write(data); err != nil {
			p.logger.Warn("playback write failed", "error", err)
		}
	})
	u.done = time.AfterFunc(delay+duration, func() {
		u.mu.Lock()
		stopped := u.stopped
		u.mu.Unlock()
		if stopped {
			return
		}
		if done != nil {
			done()
		}
	})

	stop := func() {
		u.mu.Lock()
		if u.stopped {
			u.mu.Unlock()
			return
		}
		u.stopped = true
		written := u.written
		u.mu.Unlock()

		u.write.Stop()
		u.done.Stop()

		// Audio already handed to the process sits in its buffer;
		// relaunching is the only way to cut it off mid-play.
		if written {
			p.restart()
		}
	}

	return stop, nil
}

// startLocked launches the playback process. Caller holds p.mu.
func (p *Player) startLocked() error {
	argv := playbackCommand(p.cfg)

	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start %s: %w", argv[0], err)
	}

	p.cmd = cmd
	p.stdin = stdin

	p.logger.Info("playback started",
		"command", argv[0],
		"sample_rate", p.cfg.SampleRate,
	)

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

func (p *Player) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.stdin == nil {
		return io.ErrClosedPipe
	}
	_, err := p.stdin.Write(data)
	return err
}

// restart kills the playback process so buffered audio stops, then
// leaves the player ready to relaunch on the next PlayAt.
func (p *Player) restart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return
	}
	p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.stdin = nil
}

// Close terminates the playback process.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	cmd := p.cmd
	stdin := p.stdin
	p.cmd = nil
	p.stdin = nil
	p.mu.Unlock()

	if stdin != nil {
		stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	return nil
}

// playbackCommand returns the argv for the platform's PCM player.
func playbackCommand(cfg Config) []string {
	rate := strconv.Itoa(cfg.SampleRate)
	channels := strconv.Itoa(cfg.Channels)

	if runtime.GOOS == "linux" {
		device := cfg.Device
		if device == "" {
			device = "default"
		}
		return []string{"aplay", "-q", "-D", device, "-f", "S16_LE", "-r", rate, "-c", channels, "-t", "raw"}
	}

	return []string{
		"ffplay", "-hide_banner", "-loglevel", "error", "-nodisp",
		"-f", "s16le", "-ar", rate, "-ch_layout", "mono", "-i", "-",
	}
}

// Ensure Player implements Output at compile time.
var _ Output = (*Player)(nil)
