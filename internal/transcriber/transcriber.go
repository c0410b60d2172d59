package transcriber

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrPermissionDenied means the microphone could not be opened.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrBlocked means the recognition backend refused access.
	ErrBlocked    = errors.New("speech recognition blocked")
	ErrNetwork    = errors.New("speech recognition network error")
	ErrNoSpeech   = errors.New("no speech detected")
	ErrStartAudio = errors.New("failed to start audio capture")
	// ErrMicrophoneBusy means another capture still holds the device.
	ErrMicrophoneBusy = errors.New("microphone is already in use")
)

// OtherError carries a backend error code that has no dedicated kind.
type OtherError struct {
	Code string
}

func (e *OtherError) Error() string {
	return "speech recognition error: " + e.Code
}

// Receiver gets the events of one recognition stream. OnEnd is delivered
// exactly once and always last, including after an error or a Stop.
type Receiver interface {
	OnResult(text string, isFinal bool)
	OnError(err error)
	OnEnd()
}

type Stream interface {
	// Stop ends recognition and releases the audio source. It is safe to call
	// more than once.
	Stop() error
}

type Transcriber interface {
	StartStreaming(ctx context.Context, languageTag string, receiver Receiver) (Stream, error)
}

// Microphone is the single audio input device. Open yields raw signed 16-bit
// little-endian mono PCM at SampleRateHertz.
type Microphone interface {
	Probe(ctx context.Context) error
	Open(ctx context.Context) (io.ReadCloser, error)
}

const SampleRateHertz = 16000
