package audit

import (
	"github.com/fixwell/backoffice/internal/audit/repository"
	"github.com/fixwell/backoffice/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
