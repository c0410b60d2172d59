package session

import (
	"github.com/foxseedlab/kissandost/internal/advisor"
	"github.com/foxseedlab/kissandost/internal/conversation"
	"github.com/foxseedlab/kissandost/internal/kvstore"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*conversation.IDGenerator, error) {
		return conversation.NewIDGenerator(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Store, error) {
		kv := do.MustInvoke[kvstore.Store](i)
		return NewStore(kv), nil
	})
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		store := do.MustInvoke[*Store](i)
		adv := do.MustInvoke[advisor.Advisor](i)
		ids := do.MustInvoke[*conversation.IDGenerator](i)
		return NewOrchestrator(store, adv, ids), nil
	})
}
