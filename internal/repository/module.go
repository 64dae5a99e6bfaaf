package repository

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/repository/estimation"
	"github.com/Additional-Code/nursery/internal/repository/order"
	"github.com/Additional-Code/nursery/internal/repository/plant"
	"github.com/Additional-Code/nursery/internal/repository/user"
	"github.com/Additional-Code/nursery/internal/store"
)

// Module provides the transactional scope and every repository to Fx.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewScope, fx.As(new(store.Scope)))),
	plant.Module,
	order.Module,
	estimation.Module,
	user.Module,
)
