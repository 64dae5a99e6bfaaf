package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/cache"
	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/database"
	"github.com/Additional-Code/nursery/internal/document"
	"github.com/Additional-Code/nursery/internal/logger"
	"github.com/Additional-Code/nursery/internal/messaging"
	"github.com/Additional-Code/nursery/internal/observability"
	"github.com/Additional-Code/nursery/internal/repository"
	grpcserver "github.com/Additional-Code/nursery/internal/server/grpc"
	httpserver "github.com/Additional-Code/nursery/internal/server/http"
	serviceauth "github.com/Additional-Code/nursery/internal/service/auth"
	serviceestimation "github.com/Additional-Code/nursery/internal/service/estimation"
	serviceorder "github.com/Additional-Code/nursery/internal/service/order"
	serviceplant "github.com/Additional-Code/nursery/internal/service/plant"
	servicereport "github.com/Additional-Code/nursery/internal/service/report"
	transporthttp "github.com/Additional-Code/nursery/internal/transport/http"
	"github.com/Additional-Code/nursery/internal/txretry"
	"github.com/Additional-Code/nursery/internal/worker"
	workerorder "github.com/Additional-Code/nursery/internal/worker/order"
)

// Storage provides configuration, logging and database connections only.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Storage,
	cache.Module,
	messaging.Module,
	observability.Module,
	repository.Module,
	txretry.Module,
	document.Module,
	serviceplant.Module,
	serviceorder.Module,
	serviceestimation.Module,
	servicereport.Module,
	serviceauth.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
