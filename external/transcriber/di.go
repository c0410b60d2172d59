package transcriber

import (
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.SpeechRecognizer != config.SpeechRecognizerCloud {
			return disabledTranscriber{}, nil
		}
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}, do.MustInvoke[transcriber.Microphone](i)), nil
	})
}
