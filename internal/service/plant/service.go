package plant

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/internal/txretry"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/nursery/service/plant")

// Module provides the plant service to Fx.
var Module = fx.Provide(NewService)

// Service manages the plant catalog. Stock changes made here hold the plant's row
// lock, like order placement does.
type Service struct {
	scope   store.Scope
	plants  store.PlantReader
	retrier *txretry.Retrier
	logger  *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Scope   store.Scope
	Plants  store.PlantReader
	Retrier *txretry.Retrier
	Logger  *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retrier := p.Retrier
	if retrier == nil {
		retrier = txretry.New(1, 0, logger)
	}
	return &Service{scope: p.Scope, plants: p.Plants, retrier: retrier, logger: logger}
}

// Create adds a plant. Name and price are required.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Plant, error) {
	ctx, span := serviceTracer.Start(ctx, "PlantService.Create")
	defer span.End()

	if in.Name == nil || in.Price == nil {
		return nil, errorbank.BadRequest("plant name and price are required")
	}
	plant := new(entity.Plant)
	if err := in.apply(plant); err != nil {
		return nil, err
	}

	err := s.scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Plants().Insert(ctx, plant)
	})
	if err != nil {
		return nil, s.fail(span, err, "failed to create plant")
	}
	s.logger.Info("plant created", zap.Int64("id", plant.ID), zap.String("name", plant.Name))
	return plant, nil
}

// Get fetches one plant.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Plant, error) {
	ctx, span := serviceTracer.Start(ctx, "PlantService.Get", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	plant, err := s.plants.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err, "failed to load plant")
	}
	return plant, nil
}

// List returns the whole catalog, newest first.
func (s *Service) List(ctx context.Context) ([]*entity.Plant, error) {
	ctx, span := serviceTracer.Start(ctx, "PlantService.List")
	defer span.End()

	plants, err := s.plants.List(ctx)
	if err != nil {
		return nil, s.fail(span, err, "failed to list plants")
	}
	return plants, nil
}

// Update applies the set fields of in to the plant under its row lock.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Plant, error) {
	ctx, span := serviceTracer.Start(ctx, "PlantService.Update", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	var updated *entity.Plant
	err := s.retrier.Do(ctx, "plant.update", func(ctx context.Context) error {
		return s.scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			plant, err := tx.Plants().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := in.apply(plant); err != nil {
				return err
			}
			if err := tx.Plants().Update(ctx, plant); err != nil {
				return err
			}
			updated = plant
			return nil
		})
	})
	if err != nil {
		return nil, s.fail(span, err, "failed to update plant")
	}
	return updated, nil
}

// Delete removes a plant. Order items keep their snapshot and lose the reference.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "PlantService.Delete", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	err := s.retrier.Do(ctx, "plant.delete", func(ctx context.Context) error {
		return s.scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.Plants().GetForUpdate(ctx, id); err != nil {
				return err
			}
			return tx.Plants().Delete(ctx, id)
		})
	})
	if err != nil {
		return s.fail(span, err, "failed to delete plant")
	}
	s.logger.Info("plant deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) fail(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	}
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("plant not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	s.logger.Error(message, zap.Error(err))
	return errorbank.Internal(message, errorbank.WithCause(fmt.Errorf("plant: %w", err)))
}
