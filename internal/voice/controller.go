package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/kissandost/internal/language"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/transcriber"
)

const notificationSource = "voice"

type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateListening            State = "listening"
)

// CaptureSession is a snapshot of the current capture. AccumulatedText holds
// the final fragments committed since Start.
type CaptureSession struct {
	Active          bool
	AccumulatedText string
	LastError       error
}

// Controller owns the microphone and at most one recognition stream.
// Every transition back to idle bumps the generation, so events from a
// superseded stream are dropped.
type Controller struct {
	mic      transcriber.Microphone
	stt      transcriber.Transcriber
	input    *InputBuffer
	notifier notify.Notifier

	mu          sync.Mutex
	state       State
	gen         uint64
	lang        language.Language
	cancel      context.CancelFunc
	stream      transcriber.Stream
	accumulated string
	lastErr     error
	// probing is closed once the permission probe has released the microphone.
	probing chan struct{}
}

func NewController(mic transcriber.Microphone, stt transcriber.Transcriber, input *InputBuffer, notifier notify.Notifier) *Controller {
	return &Controller{
		mic:      mic,
		stt:      stt,
		input:    input,
		notifier: notifier,
		state:    StateIdle,
	}
}

// Start begins a capture in lang. While a capture is requesting permission
// or listening, Start stops it instead. Start returns once recognition is
// running or has failed; the stream outlives ctx until Stop or its own end.
func (c *Controller) Start(ctx context.Context, lang language.Language) error {
	c.mu.Lock()
	if c.state != StateIdle {
		slog.Info("voice capture toggled off", "state", string(c.state))
		stream, probing := c.endLocked()
		c.mu.Unlock()
		stopStream(stream)
		waitProbe(probing)
		return nil
	}
	c.gen++
	gen := c.gen
	c.state = StateRequestingPermission
	c.lang = lang
	c.accumulated = ""
	c.lastErr = nil
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	probed := make(chan struct{})
	c.probing = probed
	c.mu.Unlock()

	err := c.mic.Probe(runCtx)
	close(probed)
	if err != nil {
		if !c.isCurrent(gen) {
			return nil
		}
		if errors.Is(err, transcriber.ErrMicrophoneBusy) {
			slog.Error("microphone is held by another capture", "error", err)
			busy := fmt.Errorf("%w: %v", transcriber.ErrStartAudio, err)
			c.fail(ctx, gen, busy, messageStartFailed)
			return busy
		}
		slog.Error("microphone permission denied", "error", err)
		denied := fmt.Errorf("%w: %v", transcriber.ErrPermissionDenied, err)
		c.fail(ctx, gen, denied, errorMessage(denied, lang))
		return denied
	}
	if !c.isCurrent(gen) {
		return nil
	}

	tag := language.SpeechTag(string(lang))
	stream, err := c.stt.StartStreaming(runCtx, tag, &receiver{c: c, gen: gen})
	if err != nil {
		if !c.isCurrent(gen) {
			return nil
		}
		slog.Error("failed to start speech recognition", "language_tag", tag, "error", err)
		c.fail(ctx, gen, err, messageStartFailed)
		return fmt.Errorf("%w: %v", transcriber.ErrStartAudio, err)
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateRequestingPermission {
		// stopped or ended while starting
		c.mu.Unlock()
		stopStream(stream)
		return nil
	}
	c.state = StateListening
	c.stream = stream
	c.mu.Unlock()
	slog.Info("voice capture listening", "language_tag", tag)
	return nil
}

// Stop ends the current capture, if any, and releases the microphone before
// returning.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	stream, probing := c.endLocked()
	c.mu.Unlock()
	stopStream(stream)
	waitProbe(probing)
	slog.Info("voice capture stopped")
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() CaptureSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CaptureSession{
		Active:          c.state != StateIdle,
		AccumulatedText: c.accumulated,
		LastError:       c.lastErr,
	}
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// endLocked returns to idle and hands back the stream and any pending probe
// for the caller to settle outside the lock.
func (c *Controller) endLocked() (transcriber.Stream, chan struct{}) {
	c.gen++
	c.state = StateIdle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	stream := c.stream
	c.stream = nil
	probing := c.probing
	c.probing = nil
	return stream, probing
}

func (c *Controller) fail(ctx context.Context, gen uint64, err error, message string) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	if !errors.Is(err, transcriber.ErrNoSpeech) {
		c.lastErr = err
	}
	stream, _ := c.endLocked()
	c.mu.Unlock()
	stopStream(stream)
	if message != "" {
		c.notifier.Notify(ctx, notify.Notification{Kind: notify.KindError, Source: notificationSource, Message: message})
	}
}

func (c *Controller) handleResult(gen uint64, text string, isFinal bool) {
	if !isFinal || text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.accumulated = joinFragment(c.accumulated, text)
	c.input.Append(text)
}

func (c *Controller) handleError(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	lang := c.lang
	c.mu.Unlock()
	if errors.Is(err, transcriber.ErrNoSpeech) {
		slog.Debug("no speech detected", "error", err)
	} else {
		slog.Error("speech recognition error", "error", err)
	}
	c.fail(context.Background(), gen, err, errorMessage(err, lang))
}

func (c *Controller) handleEnd(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	stream, _ := c.endLocked()
	c.mu.Unlock()
	stopStream(stream)
	slog.Info("voice capture ended")
}

func waitProbe(probing chan struct{}) {
	if probing != nil {
		<-probing
	}
}

func stopStream(stream transcriber.Stream) {
	if stream == nil {
		return
	}
	if err := stream.Stop(); err != nil {
		slog.Warn("failed to stop recognition stream", "error", err)
	}
}

type receiver struct {
	c   *Controller
	gen uint64
}

func (r *receiver) OnResult(text string, isFinal bool) {
	r.c.handleResult(r.gen, text, isFinal)
}

func (r *receiver) OnError(err error) {
	r.c.handleError(r.gen, err)
}

func (r *receiver) OnEnd() {
	r.c.handleEnd(r.gen)
}
