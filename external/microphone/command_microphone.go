package microphone

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/foxseedlab/kissandost/internal/transcriber"
)

// probeFrameBytes is one 20 ms frame of 16 kHz mono s16le.
const probeFrameBytes = transcriber.SampleRateHertz / 50 * 2

var ErrBusy = transcriber.ErrMicrophoneBusy

// CommandMicrophone captures raw PCM from an external recorder process
// (arecord or ffmpeg). Only one capture may be open at a time.
type CommandMicrophone struct {
	command string

	mu     sync.Mutex
	active *capture
}

func NewCommandMicrophone(command string) *CommandMicrophone {
	return &CommandMicrophone{command: command}
}

// Probe opens the device, reads one frame and releases it.
func (m *CommandMicrophone) Probe(ctx context.Context) error {
	rc, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	read := make(chan error, 1)
	go func() {
		buf := make([]byte, probeFrameBytes)
		_, err := io.ReadFull(rc, buf)
		read <- err
	}()
	select {
	case err := <-read:
		if err != nil {
			return fmt.Errorf("microphone produced no audio: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *CommandMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrBusy
	}

	args, err := captureArgs(m.command)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(m.command); err != nil {
		return nil, fmt.Errorf("%s is required for microphone capture: %w", m.command, err)
	}
	cmd := exec.CommandContext(ctx, m.command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open %s stdout: %w", m.command, err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s capture: %w", m.command, err)
	}
	c := &capture{owner: m, cmd: cmd, stdout: stdout}
	m.active = c
	slog.Debug("microphone opened", "command", m.command, "pid", cmd.Process.Pid)
	return c, nil
}

func (m *CommandMicrophone) release(c *capture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == c {
		m.active = nil
	}
}

func captureArgs(command string) ([]string, error) {
	rate := strconv.Itoa(transcriber.SampleRateHertz)
	switch filepath.Base(command) {
	case "arecord":
		return []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", rate}, nil
	case "ffmpeg":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", rate,
			"-f", "s16le", "-",
		}, nil
	case "parec":
		return []string{"--raw", "--format=s16le", "--channels=1", "--rate=" + rate}, nil
	default:
		return nil, fmt.Errorf("unsupported microphone command %q; supported: arecord, ffmpeg, parec", command)
	}
}

type capture struct {
	owner  *CommandMicrophone
	cmd    *exec.Cmd
	stdout io.ReadCloser
	once   sync.Once
}

func (c *capture) Read(p []byte) (int, error) {
	return c.stdout.Read(p)
}

// Close kills the recorder and frees the device. Safe to call repeatedly.
func (c *capture) Close() error {
	c.once.Do(func() {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
			_ = c.cmd.Wait()
		}
		c.owner.release(c)
		slog.Debug("microphone released")
	})
	return nil
}
