package playback

import (
	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/speech"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Controller, error) {
		return NewController(
			do.MustInvoke[speech.Synthesizer](i),
			do.MustInvoke[speech.LocalSynthesizer](i),
			do.MustInvoke[audio.Output](i),
			do.MustInvoke[notify.Notifier](i),
		), nil
	})
}
