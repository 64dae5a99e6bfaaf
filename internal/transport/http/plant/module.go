package plant

import "go.uber.org/fx"

// Module wires HTTP plant handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
