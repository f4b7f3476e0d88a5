package payout

import (
	"github.com/fixwell/backoffice/internal/payout/repository"
	"github.com/fixwell/backoffice/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
