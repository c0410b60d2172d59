package audio

import "context"

// Format describes the samples handed to a Device. SampleRate is the source
// rate; devices convert to the host rate while playing.
type Format struct {
	SampleRate int
	Channels   int
}

// SpeechFormat is the format of synthesized speech payloads.
var SpeechFormat = Format{SampleRate: SourceSampleRate, Channels: 1}

// Output opens the single output device.
type Output interface {
	Open(ctx context.Context, format Format) (Device, error)
}

type Device interface {
	// Play blocks until the samples have been played, ctx is done or the
	// device is closed.
	Play(ctx context.Context, samples []float32) error
	// Close releases the device. It is safe to call more than once.
	Close() error
}

// Codec compresses PCM payloads for storage.
type Codec interface {
	Encode(pcm []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}
