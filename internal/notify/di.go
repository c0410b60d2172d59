package notify

import (
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Board, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sender := do.MustInvoke[webhook.Sender](i)
		return NewBoard(cfg.NotificationTTL, sender), nil
	})
	do.Provide(injector, func(i do.Injector) (Notifier, error) {
		return do.MustInvoke[*Board](i), nil
	})
}
