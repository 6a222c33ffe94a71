package settlement

import (
	"github.com/smallbiznis/scrapline/internal/settlement/repository"
	"github.com/smallbiznis/scrapline/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
