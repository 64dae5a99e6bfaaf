package user

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/store"
)

// Module provides the user repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(store.UserRepository))),
)
