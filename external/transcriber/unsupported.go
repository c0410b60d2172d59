package transcriber

import (
	"context"
	"errors"

	"github.com/foxseedlab/kissandost/internal/transcriber"
)

var ErrRecognizerDisabled = errors.New("speech recognition is disabled")

// disabledTranscriber is used when SPEECH_RECOGNIZER is none. Voice capture
// then fails to start and the user sees the start failure notice.
type disabledTranscriber struct{}

func (disabledTranscriber) StartStreaming(context.Context, string, transcriber.Receiver) (transcriber.Stream, error) {
	return nil, ErrRecognizerDisabled
}
