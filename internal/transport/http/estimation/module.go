package estimation

import "go.uber.org/fx"

// Module wires HTTP estimation handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
