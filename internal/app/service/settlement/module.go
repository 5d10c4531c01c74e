package settlement

import "go.uber.org/fx"

// Module exposes the settlement job via Fx.
var Module = fx.Options(
	fx.Provide(NewUserStore),
	fx.Provide(NewService),
)
