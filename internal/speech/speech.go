package speech

import (
	"context"
	"errors"
)

// ErrUnsupported means no synthesizer is available on this host.
var ErrUnsupported = errors.New("speech synthesis is unsupported")

// Synthesizer produces base64 PCM16LE 24 kHz mono speech. An empty payload
// means the caller should fall back to local synthesis.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// LocalSynthesizer speaks text on the host. Speak blocks until the utterance
// ends or Cancel is called; a cancelled utterance is not an error.
type LocalSynthesizer interface {
	Speak(ctx context.Context, text, languageTag string) error
	Cancel()
}
