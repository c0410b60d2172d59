package advisor

import (
	"context"

	"github.com/foxseedlab/kissandost/internal/advisor"
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (advisor.Advisor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewGeminiAdvisor(context.Background(), cfg.GeminiAPIKey, cfg.GeminiAdvisorModel)
	})
}
