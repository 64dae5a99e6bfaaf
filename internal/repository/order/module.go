package order

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/store"
)

// Module provides the replica-backed order reader to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(store.OrderReader))),
)
