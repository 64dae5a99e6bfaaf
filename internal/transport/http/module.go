package http

import (
	"go.uber.org/fx"

	authtransport "github.com/Additional-Code/nursery/internal/transport/http/auth"
	estimationtransport "github.com/Additional-Code/nursery/internal/transport/http/estimation"
	ordertransport "github.com/Additional-Code/nursery/internal/transport/http/order"
	planttransport "github.com/Additional-Code/nursery/internal/transport/http/plant"
	reporttransport "github.com/Additional-Code/nursery/internal/transport/http/report"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	router.Module,
	authtransport.Module,
	planttransport.Module,
	ordertransport.Module,
	estimationtransport.Module,
	reporttransport.Module,
)
