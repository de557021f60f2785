package subscription

import (
	"github.com/lovably74/SmartCON-sub001/internal/subscription/repository"
	"github.com/lovably74/SmartCON-sub001/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
