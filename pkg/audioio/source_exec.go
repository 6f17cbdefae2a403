package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// execSource captures audio by reading raw PCM16 from an external
// recorder's stdout (arecord on Linux, ffmpeg elsewhere).
type execSource struct {
	cfg     Config
	logger  *slog.Logger
	backend string
	argv    []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	running  bool
	closed   bool
	streamCh chan AudioChunk
	stopCh   chan struct{}

	// Stats
	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// newARecordSource builds a capture source backed by ALSA's arecord.
func newARecordSource(cfg Config, logger *slog.Logger) (Source, error) {
	device := cfg.Device
	if device == "" {
		device = "default"
	}
	argv := []string{
		"arecord", "-q", "-D", device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(cfg.SampleRate),
		"-c", strconv.Itoa(cfg.Channels),
		"-t", "raw",
	}
	return newExecSource(cfg, logger, "arecord", argv), nil
}

// newFFmpegSource builds a capture source backed by ffmpeg.
// On macOS the default device is avfoundation audio input 0.
func newFFmpegSource(cfg Config, logger *slog.Logger) (Source, error) {
	device := cfg.Device
	if device == "" {
		device = ":0"
	}
	argv := []string{
		"ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "avfoundation", "-i", device,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le", "-",
	}
	return newExecSource(cfg, logger, "ffmpeg", argv), nil
}

func newExecSource(cfg Config, logger *slog.Logger, backend string, argv []string) *execSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &execSource{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		argv:     argv,
		streamCh: make(chan AudioChunk, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the recorder process and begins reading chunks.
func (s *execSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start %s: %w", s.argv[0], err)
	}

	s.cmd = cmd
	s.running = true
	s.stopCh = make(chan struct{})
	s.streamCh = make(chan AudioChunk, 10)

	go s.readLoop(ctx, stdout, s.streamCh, s.stopCh)

	s.logger.Info("audio capture started",
		"backend", s.backend,
		"sample_rate", s.cfg.SampleRate,
		"buffer_ms", s.cfg.BufferDuration.Milliseconds(),
	)

	return nil
}

// readLoop owns streamCh: only it sends, and it closes the channel on
// the way out so consumers see a clean end of stream.
func (s *execSource) readLoop(ctx context.Context, stdout io.Reader, streamCh chan AudioChunk, stopCh chan struct{}) {
	defer close(streamCh)

	buf := make([]byte, s.cfg.BufferBytes())

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-stopCh:
			return
		default:
		}

		if _, err := io.ReadFull(stdout, buf); err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if running {
				s.logger.Warn("audio capture read failed", "backend", s.backend, "error", err)
				s.Stop()
			}
			return
		}

		var chunk AudioChunk
		chunk.FromBytes(buf, s.cfg.SampleRate, s.cfg.Channels)

		select {
		case streamCh <- chunk:
			s.chunksRead.Add(1)
			s.samplesRead.Add(int64(len(chunk.Samples)))
		default:
			// Consumer too slow: drop the chunk.
			s.overruns.Add(1)
		}
	}
}

// Stop halts capture and terminates the recorder process.
func (s *execSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	close(s.stopCh)

	// Killing the recorder fails the pending read, which ends the
	// read loop and closes the stream channel.
	cmd := s.cmd
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		go func() { _ = cmd.Wait() }()
	}
	s.cmd = nil

	s.logger.Info("audio capture stopped", "backend", s.backend)

	return nil
}

// Read reads the next audio chunk.
func (s *execSource) Read(ctx context.Context) (AudioChunk, error) {
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-s.streamCh:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the audio chunk channel.
func (s *execSource) Stream() <-chan AudioChunk {
	return s.streamCh
}

// Config returns the audio configuration.
func (s *execSource) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *execSource) Name() string {
	return s.backend
}

// Close releases resources.
func (s *execSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.Stop()
}

// Stats returns source statistics.
func (s *execSource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     s.backend,
	}
}

// Ensure execSource implements SourceWithStats.
var _ SourceWithStats = (*execSource)(nil)
