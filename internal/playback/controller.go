package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/language"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/speech"
)

const (
	notificationSource = "playback"

	messagePlaybackFailed = "Could not play the audio response."
	messageUnsupported    = "Speech is not available on this device."
)

type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

type Session struct {
	Active bool
	Source Source
}

// Controller owns the output device and speaks one text at a time, either
// as decoded remote speech or through the local synthesizer.
type Controller struct {
	synth    speech.Synthesizer
	local    speech.LocalSynthesizer
	output   audio.Output
	notifier notify.Notifier

	mu     sync.Mutex
	active bool
	source Source
	gen    uint64
	cancel context.CancelFunc
	device audio.Device
	// done is closed once the current run has released its device.
	done chan struct{}
}

func NewController(synth speech.Synthesizer, local speech.LocalSynthesizer, output audio.Output, notifier notify.Notifier) *Controller {
	return &Controller{
		synth:    synth,
		local:    local,
		output:   output,
		notifier: notifier,
	}
}

// Speak plays text and blocks until playback ends. If something is already
// playing, Speak stops it and returns instead.
func (c *Controller) Speak(ctx context.Context, text, languageHint string) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		slog.Info("playback toggled off")
		c.Stop()
		return nil
	}
	prev := c.done
	c.gen++
	gen := c.gen
	c.active = true
	c.source = SourceNone
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()
	defer close(done)
	defer c.finish(gen)

	if prev != nil {
		// a Stop from another goroutine may still be releasing the device
		<-prev
	}

	payload, err := c.synth.Synthesize(runCtx, text)
	if !c.isCurrent(gen) {
		return nil
	}
	if err != nil {
		slog.Warn("speech synthesis failed; falling back to local synthesizer", "error", err)
		payload = ""
	}
	if payload == "" {
		return c.speakLocal(runCtx, gen, text, languageHint)
	}
	return c.playRemote(runCtx, gen, payload)
}

func (c *Controller) playRemote(ctx context.Context, gen uint64, payload string) error {
	samples, err := audio.DecodePCM16LE(payload)
	if err != nil {
		slog.Error("failed to decode speech payload", "error", err)
		c.notifyFailure(ctx, messagePlaybackFailed)
		return err
	}

	device, err := c.output.Open(ctx, audio.SpeechFormat)
	if err != nil {
		if !c.isCurrent(gen) {
			return nil
		}
		slog.Error("failed to open audio output", "error", err)
		c.notifyFailure(ctx, messagePlaybackFailed)
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		closeDevice(device)
		return nil
	}
	c.device = device
	c.source = SourceRemote
	c.mu.Unlock()
	defer c.releaseDevice(device)

	slog.Info("playback started", "source", string(SourceRemote), "samples", len(samples))
	if err := device.Play(ctx, samples); err != nil {
		if !c.isCurrent(gen) {
			return nil
		}
		slog.Error("audio playback failed", "error", err)
		c.notifyFailure(ctx, messagePlaybackFailed)
		return err
	}
	slog.Info("playback finished")
	return nil
}

func (c *Controller) speakLocal(ctx context.Context, gen uint64, text, languageHint string) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}
	c.source = SourceLocal
	c.mu.Unlock()

	tag := language.SpeechTag(languageHint)
	slog.Info("playback started", "source", string(SourceLocal), "language_tag", tag)
	if err := c.local.Speak(ctx, text, tag); err != nil {
		if !c.isCurrent(gen) {
			return nil
		}
		slog.Error("local speech failed", "language_tag", tag, "error", err)
		if errors.Is(err, speech.ErrUnsupported) {
			c.notifyFailure(ctx, messageUnsupported)
		} else {
			c.notifyFailure(ctx, messagePlaybackFailed)
		}
		return err
	}
	return nil
}

// Stop ends playback and returns once the run has released the device,
// including a device that was still being opened. It always cancels the
// local synthesizer, whichever source was active.
func (c *Controller) Stop() {
	c.mu.Lock()
	var (
		device audio.Device
		done   chan struct{}
	)
	if c.active {
		done = c.done
		c.gen++
		c.active = false
		c.source = SourceNone
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		device = c.device
		c.device = nil
	}
	c.mu.Unlock()

	if device != nil {
		closeDevice(device)
	}
	c.local.Cancel()
	if done != nil {
		<-done
	}
}

// releaseDevice closes device unless Stop has already taken and closed it.
func (c *Controller) releaseDevice(device audio.Device) {
	c.mu.Lock()
	owned := c.device == device
	if owned {
		c.device = nil
	}
	c.mu.Unlock()
	if owned {
		closeDevice(device)
	}
}

func (c *Controller) State() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{Active: c.active, Source: c.source}
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// finish resets state after a natural end so the next Speak starts fresh.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.active = false
	c.source = SourceNone
	c.device = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) notifyFailure(ctx context.Context, message string) {
	c.notifier.Notify(context.WithoutCancel(ctx), notify.Notification{
		Kind:    notify.KindError,
		Source:  notificationSource,
		Message: message,
	})
}

func closeDevice(device audio.Device) {
	if err := device.Close(); err != nil {
		slog.Warn("failed to close audio output", "error", err)
	}
}
