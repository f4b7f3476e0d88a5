package report

import (
	"github.com/fixwell/backoffice/internal/report/repository"
	"github.com/fixwell/backoffice/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
