package contractor

import (
	"github.com/fixwell/backoffice/internal/contractor/repository"
	"github.com/fixwell/backoffice/internal/contractor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contractor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
