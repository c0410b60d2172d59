package microphone

import (
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Microphone, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCommandMicrophone(c.MicrophoneCommand), nil
	})
}
