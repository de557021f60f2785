package settings

import (
	"github.com/lovably74/SmartCON-sub001/internal/settings/repository"
	"github.com/lovably74/SmartCON-sub001/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
