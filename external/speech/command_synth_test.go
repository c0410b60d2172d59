package speech

import (
	"errors"
	"testing"

	"github.com/foxseedlab/kissandost/internal/speech"
)

func TestVoiceFor(t *testing.T) {
	tests := map[string]string{
		"en-US": "en-us",
		"ur-PK": "ur",
		"sd-PK": "sd",
		"ps-PK": "ps",
		"":      "en-us",
	}
	for tag, want := range tests {
		if got := voiceFor(tag); got != want {
			t.Fatalf("voiceFor(%q): expected %q, got %q", tag, want, got)
		}
	}
}

func TestCommandSynthesizer_MissingCommandIsUnsupported(t *testing.T) {
	s := NewCommandSynthesizer("/nonexistent/espeak-ng")
	if err := s.Speak(t.Context(), "hello", "en-US"); !errors.Is(err, speech.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestCommandSynthesizer_CancelWithNothingRunning(t *testing.T) {
	s := NewCommandSynthesizer("espeak-ng")
	s.Cancel()
	s.Cancel()
}
