package rule

import (
	"github.com/lovably74/SmartCON-sub001/internal/rule/repository"
	"github.com/lovably74/SmartCON-sub001/internal/rule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
