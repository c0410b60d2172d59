package playback

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/speech"
)

type mockSynthesizer struct {
	payload string
	err     error
}

func (m *mockSynthesizer) Synthesize(context.Context, string) (string, error) {
	return m.payload, m.err
}

type mockLocal struct {
	mu       sync.Mutex
	err      error
	block    bool
	tags     []string
	cancels  int
	started  chan struct{}
	released chan struct{}
}

func newMockLocal() *mockLocal {
	return &mockLocal{started: make(chan struct{}, 1), released: make(chan struct{})}
}

func (m *mockLocal) Speak(ctx context.Context, _ string, tag string) error {
	m.mu.Lock()
	m.tags = append(m.tags, tag)
	block, err := m.block, m.err
	m.mu.Unlock()
	m.started <- struct{}{}
	if block {
		select {
		case <-m.released:
		case <-ctx.Done():
		}
	}
	return err
}

func (m *mockLocal) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	if m.block {
		select {
		case <-m.released:
		default:
			close(m.released)
		}
	}
}

func (m *mockLocal) cancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

type mockDevice struct {
	mu      sync.Mutex
	block   bool
	played  []float32
	closes  int
	playing chan struct{}
	closed  chan struct{}
}

func (d *mockDevice) Play(ctx context.Context, samples []float32) error {
	d.mu.Lock()
	d.played = samples
	block := d.block
	d.mu.Unlock()
	d.playing <- struct{}{}
	if !block {
		return nil
	}
	select {
	case <-d.closed:
		return errors.New("device closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *mockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closes == 0 {
		close(d.closed)
	}
	d.closes++
	return nil
}

func (d *mockDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

type mockOutput struct {
	device *mockDevice
	err    error
	format audio.Format
}

func (o *mockOutput) Open(_ context.Context, format audio.Format) (audio.Device, error) {
	o.format = format
	if o.err != nil {
		return nil, o.err
	}
	return o.device, nil
}

type mockNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n notify.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, n)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

// gatedOutput holds every Open until gate is closed and records how many
// devices were open at the same time.
type gatedOutput struct {
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
	open    int
	maxOpen int
	devices []*mockDevice
}

func newGatedOutput() *gatedOutput {
	return &gatedOutput{gate: make(chan struct{}), entered: make(chan struct{}, 2)}
}

func (o *gatedOutput) Open(context.Context, audio.Format) (audio.Device, error) {
	o.entered <- struct{}{}
	<-o.gate
	o.mu.Lock()
	defer o.mu.Unlock()
	d := newDevice(false)
	o.devices = append(o.devices, d)
	o.open++
	o.maxOpen = max(o.maxOpen, o.open)
	return &trackedDevice{mockDevice: d, out: o}, nil
}

func (o *gatedOutput) stats() (open, maxOpen, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open, o.maxOpen, len(o.devices)
}

type trackedDevice struct {
	*mockDevice
	out *gatedOutput
}

func (d *trackedDevice) Close() error {
	if d.closeCount() == 0 {
		d.out.mu.Lock()
		d.out.open--
		d.out.mu.Unlock()
	}
	return d.mockDevice.Close()
}

func newDevice(block bool) *mockDevice {
	return &mockDevice{block: block, playing: make(chan struct{}, 1), closed: make(chan struct{})}
}

func pcmPayload(n int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, n*2))
}

func TestSpeak_PlaysRemoteSpeechAtSourceRate(t *testing.T) {
	device := newDevice(false)
	out := &mockOutput{device: device}
	local := newMockLocal()
	c := NewController(&mockSynthesizer{payload: pcmPayload(480)}, local, out, &mockNotifier{})

	if err := c.Speak(t.Context(), "Apply fungicide", "English"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.format.SampleRate != audio.SourceSampleRate || out.format.Channels != 1 {
		t.Fatalf("unexpected format: %+v", out.format)
	}
	if len(device.played) != 480 {
		t.Fatalf("expected 480 samples, got %d", len(device.played))
	}
	if device.closeCount() != 1 {
		t.Fatalf("expected device closed once, got %d", device.closeCount())
	}
	if st := c.State(); st.Active {
		t.Fatalf("natural end must reset state, got %+v", st)
	}
}

func TestSpeak_FallsBackToLocalSynthesizer(t *testing.T) {
	tests := []struct {
		name  string
		synth *mockSynthesizer
		hint  string
		tag   string
	}{
		{name: "empty payload", synth: &mockSynthesizer{}, hint: "Urdu", tag: "ur-PK"},
		{name: "synthesis error", synth: &mockSynthesizer{err: errors.New("unavailable")}, hint: "Punjabi (Pakistani)", tag: "ur-PK"},
		{name: "english", synth: &mockSynthesizer{}, hint: "English", tag: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newMockLocal()
			c := NewController(tt.synth, local, &mockOutput{err: errors.New("unused")}, &mockNotifier{})
			if err := c.Speak(t.Context(), "text", tt.hint); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(local.tags) != 1 || local.tags[0] != tt.tag {
				t.Fatalf("expected local speech in %s, got %v", tt.tag, local.tags)
			}
			if c.State().Active {
				t.Fatal("controller must be inactive after local speech")
			}
		})
	}
}

func TestSpeak_DecodeFailureNotifies(t *testing.T) {
	notifier := &mockNotifier{}
	c := NewController(&mockSynthesizer{payload: "!!not base64"}, newMockLocal(), &mockOutput{device: newDevice(false)}, notifier)

	err := c.Speak(t.Context(), "text", "English")
	if !errors.Is(err, audio.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}
	if c.State().Active {
		t.Fatal("controller must be inactive after a decode failure")
	}
}

func TestSpeak_OutputFailureNotifies(t *testing.T) {
	notifier := &mockNotifier{}
	c := NewController(&mockSynthesizer{payload: pcmPayload(10)}, newMockLocal(), &mockOutput{err: errors.New("no device")}, notifier)

	if err := c.Speak(t.Context(), "text", "English"); err == nil {
		t.Fatal("expected output error")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}
	if c.State().Active {
		t.Fatal("controller must be inactive after an output failure")
	}
}

func TestSpeak_UnsupportedLocalSpeechNotifies(t *testing.T) {
	local := newMockLocal()
	local.err = speech.ErrUnsupported
	notifier := &mockNotifier{}
	c := NewController(&mockSynthesizer{}, local, &mockOutput{}, notifier)

	if err := c.Speak(t.Context(), "text", "English"); !errors.Is(err, speech.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if notifier.got[0].Message != messageUnsupported {
		t.Fatalf("unexpected message: %q", notifier.got[0].Message)
	}
}

func TestSpeak_SecondCallTogglesOff(t *testing.T) {
	device := newDevice(true)
	local := newMockLocal()
	c := NewController(&mockSynthesizer{payload: pcmPayload(24000)}, local, &mockOutput{device: device}, &mockNotifier{})

	done := make(chan error, 1)
	go func() {
		done <- c.Speak(context.Background(), "text", "English")
	}()
	select {
	case <-device.playing:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not start")
	}
	if st := c.State(); !st.Active || st.Source != SourceRemote {
		t.Fatalf("expected active remote playback, got %+v", st)
	}

	if err := c.Speak(t.Context(), "text", "English"); err != nil {
		t.Fatalf("toggle must not fail: %v", err)
	}
	if device.closeCount() == 0 {
		t.Fatal("device must be closed when the toggle returns")
	}
	if local.cancelCount() != 1 {
		t.Fatalf("local synthesizer must be cancelled, got %d", local.cancelCount())
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stopped playback must not report an error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first Speak did not return")
	}
	if c.State().Active {
		t.Fatal("controller must be inactive after toggle")
	}
}

func TestStop_CancelsLocalSpeech(t *testing.T) {
	local := newMockLocal()
	local.block = true
	c := NewController(&mockSynthesizer{}, local, &mockOutput{}, &mockNotifier{})

	done := make(chan error, 1)
	go func() {
		done <- c.Speak(context.Background(), "text", "Sindhi")
	}()
	<-local.started
	c.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Speak did not return after Stop")
	}
	if local.tags[0] != "sd-PK" {
		t.Fatalf("unexpected tag: %v", local.tags)
	}
}

func TestStop_WaitsForDeviceStillOpening(t *testing.T) {
	out := newGatedOutput()
	c := NewController(&mockSynthesizer{payload: pcmPayload(240)}, newMockLocal(), out, &mockNotifier{})

	first := make(chan error, 1)
	go func() {
		first <- c.Speak(context.Background(), "one", "English")
	}()
	select {
	case <-out.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("output was never opened")
	}

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while the device was still being opened")
	case <-time.After(50 * time.Millisecond):
	}

	close(out.gate)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the device opened")
	}
	if err := <-first; err != nil {
		t.Fatalf("stopped playback must not report an error: %v", err)
	}
	if open, _, _ := out.stats(); open != 0 {
		t.Fatalf("late device must be closed when Stop returns, %d still open", open)
	}
	if out.devices[0].closeCount() != 1 {
		t.Fatalf("expected late device closed once, got %d", out.devices[0].closeCount())
	}

	if err := c.Speak(t.Context(), "two", "English"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, maxOpen, total := out.stats()
	if total != 2 || open != 0 {
		t.Fatalf("expected two devices opened and released, got total=%d open=%d", total, open)
	}
	if maxOpen != 1 {
		t.Fatalf("at most one device may be open at a time, saw %d", maxOpen)
	}
}

func TestStop_TwiceWhileActive(t *testing.T) {
	device := newDevice(true)
	local := newMockLocal()
	c := NewController(&mockSynthesizer{payload: pcmPayload(24000)}, local, &mockOutput{device: device}, &mockNotifier{})

	done := make(chan error, 1)
	go func() {
		done <- c.Speak(context.Background(), "text", "English")
	}()
	select {
	case <-device.playing:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not start")
	}

	c.Stop()
	c.Stop()

	if err := <-done; err != nil {
		t.Fatalf("stopped playback must not report an error: %v", err)
	}
	if device.closeCount() != 1 {
		t.Fatalf("expected device closed exactly once, got %d", device.closeCount())
	}
	if st := c.State(); st.Active || st.Source != SourceNone {
		t.Fatalf("expected inactive state, got %+v", st)
	}
	if local.cancelCount() != 2 {
		t.Fatalf("each Stop must cancel local speech, got %d", local.cancelCount())
	}
}

func TestStop_IdempotentWhenIdle(t *testing.T) {
	local := newMockLocal()
	c := NewController(&mockSynthesizer{}, local, &mockOutput{}, &mockNotifier{})

	c.Stop()
	c.Stop()

	if c.State().Active {
		t.Fatal("controller must stay inactive")
	}
	if local.cancelCount() != 2 {
		t.Fatalf("each Stop must cancel local speech, got %d", local.cancelCount())
	}
}

func TestSpeak_AfterNaturalEndStartsFresh(t *testing.T) {
	local := newMockLocal()
	c := NewController(&mockSynthesizer{}, local, &mockOutput{}, &mockNotifier{})

	for range 2 {
		if err := c.Speak(t.Context(), "text", "English"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		<-local.started
	}
	if len(local.tags) != 2 {
		t.Fatalf("expected two utterances, got %d", len(local.tags))
	}
}
