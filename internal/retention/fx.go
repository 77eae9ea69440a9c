package retention

import (
	"github.com/churnlabs/churnguard/internal/retention/service"
	"go.uber.org/fx"
)

var Module = fx.Module("retention",
	fx.Provide(service.NewService),
)
