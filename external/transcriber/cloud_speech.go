package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/kissandost/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	speechAPIEndpointPort = 443
	audioChannelCount     = 1
	// 100 ms of 16 kHz mono s16le per request.
	audioChunkBytes    = transcriber.SampleRateHertz / 10 * 2
	speechStartTimeout = 8 * time.Second
	speechEndTimeout   = 2 * time.Second
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

// recognizeStream is the part of the gRPC streaming client the recognizer
// uses.
type recognizeStream interface {
	Send(*speechpb.StreamingRecognizeRequest) error
	Recv() (*speechpb.StreamingRecognizeResponse, error)
	CloseSend() error
}

type dialFunc func(ctx context.Context) (stream recognizeStream, closeClient func() error, err error)

// CloudSpeechTranscriber streams microphone audio to Cloud Speech-to-Text v2
// and ends the stream when the service reports the end of speech.
type CloudSpeechTranscriber struct {
	projectID string
	location  string
	model     string
	mic       transcriber.Microphone
	dial      dialFunc
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig, mic transcriber.Microphone) transcriber.Transcriber {
	t := &CloudSpeechTranscriber{
		projectID: cfg.ProjectID,
		location:  strings.TrimSpace(cfg.Location),
		model:     strings.TrimSpace(cfg.Model),
		mic:       mic,
	}
	credentialsJSON := cfg.CredentialsJSON
	t.dial = func(ctx context.Context) (recognizeStream, func() error, error) {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: []byte(credentialsJSON),
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("detect credentials: %w", err)
		}
		opts := []option.ClientOption{
			option.WithAuthCredentials(creds),
		}
		if t.location != "global" {
			opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
		}
		client, err := speech.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}
		stream, err := client.StreamingRecognize(ctx)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return stream, client.Close, nil
	}
	return t
}

func (t *CloudSpeechTranscriber) StartStreaming(ctx context.Context, languageTag string, receiver transcriber.Receiver) (transcriber.Stream, error) {
	slog.Info("starting cloud speech streaming", "location", t.location, "language_tag", languageTag, "model", t.model)

	streamCtx, cancel := context.WithCancel(ctx)
	stream, closeClient, err := t.dial(streamCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := stream.Send(t.configRequest(languageTag)); err != nil {
		_ = stream.CloseSend()
		_ = closeClient()
		cancel()
		return nil, err
	}
	audio, err := t.mic.Open(streamCtx)
	if err != nil {
		_ = stream.CloseSend()
		_ = closeClient()
		cancel()
		return nil, err
	}
	slog.Info("cloud speech stream initialized", "language_tag", languageTag)

	r := &recognition{
		stream:      stream,
		audio:       audio,
		receiver:    receiver,
		cancel:      cancel,
		closeClient: closeClient,
	}
	go r.pump()
	go r.receive()
	return r, nil
}

func (t *CloudSpeechTranscriber) configRequest(languageTag string) *speechpb.StreamingRecognizeRequest {
	return &speechpb.StreamingRecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location),
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Model:         t.model,
					LanguageCodes: []string{languageTag},
					DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
						ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
							Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
							SampleRateHertz:   transcriber.SampleRateHertz,
							AudioChannelCount: audioChannelCount,
						},
					},
					Features: &speechpb.RecognitionFeatures{},
				},
				StreamingFeatures: &speechpb.StreamingRecognitionFeatures{
					InterimResults:            true,
					EnableVoiceActivityEvents: true,
					VoiceActivityTimeout: &speechpb.StreamingRecognitionFeatures_VoiceActivityTimeout{
						SpeechStartTimeout: durationpb.New(speechStartTimeout),
						SpeechEndTimeout:   durationpb.New(speechEndTimeout),
					},
				},
			},
		},
	}
}

// recognition is one running stream. Stop never waits on the receive loop,
// so it may be called from inside a receiver callback.
type recognition struct {
	stream      recognizeStream
	audio       io.ReadCloser
	receiver    transcriber.Receiver
	cancel      context.CancelFunc
	closeClient func() error

	mu        sync.Mutex
	stopped   bool
	gotResult bool

	stopOnce  sync.Once
	audioOnce sync.Once
}

func (r *recognition) Stop() error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		r.releaseAudio()
		r.cancel()
	})
	return nil
}

func (r *recognition) releaseAudio() {
	r.audioOnce.Do(func() {
		if err := r.audio.Close(); err != nil {
			slog.Warn("failed to release microphone", "error", err)
		}
	})
}

// pump forwards microphone audio until the source closes, then half-closes
// the stream so the service flushes its final results.
func (r *recognition) pump() {
	buf := make([]byte, audioChunkBytes)
	for {
		n, err := r.audio.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := r.stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: chunk},
			}); sendErr != nil {
				slog.Debug("cloud speech send stopped", "error", sendErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				slog.Debug("microphone read ended", "error", err)
			}
			_ = r.stream.CloseSend()
			return
		}
	}
}

func (r *recognition) receive() {
	defer r.finish()
	for {
		resp, err := r.stream.Recv()
		if err != nil {
			if kind := r.endError(err); kind != nil {
				r.receiver.OnError(kind)
			}
			return
		}
		for _, result := range resp.GetResults() {
			if len(result.GetAlternatives()) == 0 {
				continue
			}
			text := result.GetAlternatives()[0].GetTranscript()
			if text == "" {
				continue
			}
			r.mu.Lock()
			r.gotResult = true
			r.mu.Unlock()
			r.receiver.OnResult(text, result.GetIsFinal())
		}
		if resp.GetSpeechEventType() == speechpb.StreamingRecognizeResponse_SPEECH_ACTIVITY_END {
			slog.Debug("speech activity ended")
			r.releaseAudio()
		}
	}
}

// endError maps the terminal Recv error to the error reported to the
// receiver, or nil when the stream ended normally.
func (r *recognition) endError(err error) error {
	r.mu.Lock()
	stopped, gotResult := r.stopped, r.gotResult
	r.mu.Unlock()
	if stopped {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if !gotResult {
			return transcriber.ErrNoSpeech
		}
		return nil
	}
	return classifyError(err)
}

func (r *recognition) finish() {
	r.releaseAudio()
	r.cancel()
	if err := r.closeClient(); err != nil {
		slog.Warn("failed to close cloud speech client", "error", err)
	}
	r.receiver.OnEnd()
	slog.Info("cloud speech stream ended")
}

func classifyError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", transcriber.ErrNetwork, err)
		}
		return &transcriber.OtherError{Code: codes.Unknown.String()}
	}
	switch st.Code() {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %s", transcriber.ErrBlocked, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", transcriber.ErrNetwork, st.Message())
	default:
		return &transcriber.OtherError{Code: st.Code().String()}
	}
}
