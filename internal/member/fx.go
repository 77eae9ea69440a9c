package member

import (
	"github.com/churnlabs/churnguard/internal/member/repository"
	"github.com/churnlabs/churnguard/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member",
	fx.Provide(
		repository.Provide,
		service.Provide,
	),
)
