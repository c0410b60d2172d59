package audio

import (
	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Output, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCommandOutput(c.AudioPlayerCommand, c.AudioOutputSampleRate), nil
	})
	do.ProvideValue(injector, NewCodec())
}
