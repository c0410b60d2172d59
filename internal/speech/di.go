package speech

import (
	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/kvstore"
	"github.com/samber/do/v2"
)

// RegisterDI provides the Synthesizer used for playback: the synthesizer
// registered under RemoteName, wrapped in the cache when enabled.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Synthesizer, error) {
		remote := do.MustInvokeNamed[Synthesizer](i, RemoteName)
		c := do.MustInvoke[*config.Config](i)
		if !c.SpeechCacheEnabled {
			return remote, nil
		}
		voice := c.GeminiTTSModel + "/" + c.GeminiTTSVoice
		return NewCachedSynthesizer(remote, do.MustInvoke[kvstore.Store](i), do.MustInvoke[audio.Codec](i), voice), nil
	})
}

// RemoteName is the injector name of the uncached synthesizer.
const RemoteName = "speech.remote"
