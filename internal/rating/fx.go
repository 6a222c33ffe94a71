package rating

import (
	"github.com/smallbiznis/scrapline/internal/rating/repository"
	"github.com/smallbiznis/scrapline/internal/rating/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rating.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
