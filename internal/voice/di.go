package voice

import (
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*InputBuffer, error) {
		return NewInputBuffer(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Controller, error) {
		mic := do.MustInvoke[transcriber.Microphone](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		input := do.MustInvoke[*InputBuffer](i)
		notifier := do.MustInvoke[notify.Notifier](i)
		return NewController(mic, stt, input, notifier), nil
	})
}
