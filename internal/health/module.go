package health

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CheckGroup is the fx value group collecting readiness checks.
const CheckGroup = `group:"health.checks"`

// AsCheck annotates a constructor returning a Checker so its result joins
// the readiness group.
func AsCheck(f any) any {
	return fx.Annotate(f, fx.ResultTags(CheckGroup))
}

type params struct {
	fx.In

	Logger *zap.Logger
	Checks []Checker `group:"health.checks"`
}

// Module provides the health Service built from every contributed check.
var Module = fx.Module("health",
	fx.Provide(func(p params) *Service {
		return NewService(p.Logger, DefaultTimeout, p.Checks...)
	}),
)
