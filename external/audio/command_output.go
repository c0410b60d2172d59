package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/foxseedlab/kissandost/internal/audio"
)

// writeChunkBytes is about 100 ms at 48 kHz.
const writeChunkBytes = 9600

var ErrDeviceClosed = errors.New("audio device is closed")

// CommandOutput plays s16le mono PCM through an external player process
// (aplay, paplay or ffplay) running at the host rate.
type CommandOutput struct {
	command  string
	hostRate int
}

func NewCommandOutput(command string, hostRate int) *CommandOutput {
	return &CommandOutput{command: command, hostRate: hostRate}
}

func (o *CommandOutput) Open(ctx context.Context, format audio.Format) (audio.Device, error) {
	if format.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count %d", format.Channels)
	}
	args, err := playerArgs(o.command, o.hostRate)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(o.command); err != nil {
		return nil, fmt.Errorf("%s is required for audio playback: %w", o.command, err)
	}
	cmd := exec.Command(o.command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open %s stdin: %w", o.command, err)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", o.command, err)
	}
	d := &commandDevice{
		cmd:        cmd,
		stdin:      stdin,
		sourceRate: format.SampleRate,
		hostRate:   o.hostRate,
		exited:     make(chan struct{}),
		closed:     make(chan struct{}),
	}
	go func() {
		d.waitErr = cmd.Wait()
		close(d.exited)
	}()
	slog.Debug("audio device opened", "command", o.command, "source_rate", format.SampleRate, "host_rate", o.hostRate)
	return d, nil
}

func playerArgs(command string, rate int) ([]string, error) {
	r := strconv.Itoa(rate)
	switch filepath.Base(command) {
	case "aplay":
		return []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", r}, nil
	case "paplay":
		return []string{"--raw", "--format=s16le", "--channels=1", "--rate=" + r}, nil
	case "ffplay":
		return []string{
			"-nodisp",
			"-autoexit",
			"-loglevel", "error",
			"-f", "s16le",
			"-ar", r,
			"-ac", "1",
			"-i", "pipe:0",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported audio player %q; supported: aplay, paplay, ffplay", command)
	}
}

type commandDevice struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	sourceRate int
	hostRate   int

	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closed    chan struct{}
}

// Play resamples to the host rate, feeds the player and waits for it to
// drain. A device plays a single buffer.
func (d *commandDevice) Play(ctx context.Context, samples []float32) error {
	pcm := audio.EncodePCM16LE(audio.Resample(samples, d.sourceRate, d.hostRate))
	for off := 0; off < len(pcm); off += writeChunkBytes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.closed:
			return ErrDeviceClosed
		default:
		}
		end := min(off+writeChunkBytes, len(pcm))
		if _, err := d.stdin.Write(pcm[off:end]); err != nil {
			if d.isClosed() {
				return ErrDeviceClosed
			}
			return fmt.Errorf("write audio: %w", err)
		}
	}
	_ = d.stdin.Close()

	select {
	case <-d.exited:
		if d.isClosed() {
			return ErrDeviceClosed
		}
		if d.waitErr != nil {
			return fmt.Errorf("audio player exited: %w", d.waitErr)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.closed:
		return ErrDeviceClosed
	}
}

func (d *commandDevice) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

// Close kills the player and returns once it has exited.
func (d *commandDevice) Close() error {
	d.closeOnce.Do(func() {
		close(d.closed)
		_ = d.stdin.Close()
		if d.cmd.Process != nil {
			_ = d.cmd.Process.Kill()
		}
		<-d.exited
		slog.Debug("audio device closed")
	})
	return nil
}
