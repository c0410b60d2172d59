package speech

import (
	"context"

	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/speech"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.ProvideNamed(injector, speech.RemoteName, func(i do.Injector) (speech.Synthesizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewGeminiSynthesizer(context.Background(), c.GeminiAPIKey, c.GeminiTTSModel, c.GeminiTTSVoice)
	})
	do.Provide(injector, func(i do.Injector) (speech.LocalSynthesizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCommandSynthesizer(c.LocalTTSCommand), nil
	})
}
