package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

// FFMPEGCapture acquires the microphone through ffmpeg and streams raw PCM.
// Acquisition failures are categorized into the cockpit's device-error
// taxonomy so the UI can tell a denied permission from a missing device.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, classifyStartErr(fmt.Errorf("failed to create capture stdout pipe: %w", err), "")
	}
	if err := cmd.Start(); err != nil {
		return nil, classifyStartErr(fmt.Errorf("failed to start capture process: %w", err), "")
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An immediate exit means the device was never acquired.
	select {
	case err := <-waitErr:
		detail := strings.TrimSpace(stderr.String())
		if err != nil {
			return nil, classifyStartErr(fmt.Errorf("capture exited before recording started: %w: %s", err, detail), detail)
		}
		return nil, classifyStartErr(errors.New("capture exited before recording started"), detail)
	case <-time.After(250 * time.Millisecond):
	}

	return &ffmpegSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

// classifyStartErr maps an acquisition failure onto the device-error
// taxonomy using the process error and whatever ffmpeg wrote to stderr.
func classifyStartErr(err error, stderr string) *domain.DeviceError {
	haystack := strings.ToLower(err.Error() + " " + stderr)

	kind := domain.DeviceUnknown
	switch {
	case strings.Contains(haystack, "permission denied"),
		strings.Contains(haystack, "access denied"),
		strings.Contains(haystack, "operation not permitted"):
		kind = domain.DevicePermissionDenied
	case strings.Contains(haystack, "no such device"),
		strings.Contains(haystack, "device not found"),
		strings.Contains(haystack, "no such audio device"),
		strings.Contains(haystack, "no such file or directory"):
		kind = domain.DeviceNotFound
	}
	return &domain.DeviceError{Kind: kind, Err: err}
}

type ffmpegSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegSession) Close() error {
	return s.Stop()
}

// Stop releases the device. The process gets an interrupt first and a kill
// if it lingers; the session is always unusable afterwards.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
