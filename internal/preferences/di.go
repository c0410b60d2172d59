package preferences

import (
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/kvstore"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*ThemeStore, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewThemeStore(do.MustInvoke[kvstore.Store](i), c.DefaultTheme), nil
	})
	do.Provide(injector, func(i do.Injector) (*Users, error) {
		return NewUsers(do.MustInvoke[kvstore.Store](i)), nil
	})
}
