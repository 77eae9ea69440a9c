package webhook

import (
	"github.com/churnlabs/churnguard/internal/webhook/repository"
	"github.com/churnlabs/churnguard/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
