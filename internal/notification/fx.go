package notification

import (
	"github.com/lovably74/SmartCON-sub001/internal/notification/repository"
	"github.com/lovably74/SmartCON-sub001/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
