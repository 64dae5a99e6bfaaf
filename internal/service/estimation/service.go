package estimation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/document"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/nursery/service/estimation")

// Module provides the estimation service to Fx.
var Module = fx.Provide(NewService)

// CreateInput is a quotation request. GrandTotal is optional and checked when set.
type CreateInput struct {
	EstimateNo      string
	CustomerName    string
	CustomerContact string
	CustomerAddress string
	Items           []ItemInput
	GrandTotal      decimal.Decimal
}

// ItemInput is one quoted line; it names a plant rather than referencing one.
type ItemInput struct {
	PlantName string
	Rate      decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Service manages estimations.
type Service struct {
	repo     store.EstimationRepository
	renderer *document.Renderer
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository store.EstimationRepository
	Renderer   *document.Renderer
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: p.Repository, renderer: p.Renderer, logger: logger}
}

// Create validates and stores an estimation with recomputed totals.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Estimation, error) {
	ctx, span := serviceTracer.Start(ctx, "EstimationService.Create")
	defer span.End()

	est, err := build(in)
	if err != nil {
		span.SetStatus(codes.Error, "invalid estimation")
		return nil, err
	}
	if err := s.repo.Create(ctx, est); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errorbank.Conflict("estimate number already exists", errorbank.WithCause(err))
		}
		return nil, s.internal(span, err, "failed to create estimation")
	}
	span.SetAttributes(attribute.Int64("estimation.id", est.ID))
	return est, nil
}

// Get fetches one estimation with its items.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Estimation, error) {
	ctx, span := serviceTracer.Start(ctx, "EstimationService.Get", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	est, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errorbank.NotFound("estimation not found")
	}
	if err != nil {
		return nil, s.internal(span, err, "failed to load estimation")
	}
	return est, nil
}

// List returns estimations newest first.
func (s *Service) List(ctx context.Context) ([]*entity.Estimation, error) {
	ctx, span := serviceTracer.Start(ctx, "EstimationService.List")
	defer span.End()

	ests, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal(span, err, "failed to list estimations")
	}
	return ests, nil
}

// Delete removes an estimation and its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "EstimationService.Delete", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errorbank.NotFound("estimation not found")
	}
	if err != nil {
		return s.internal(span, err, "failed to delete estimation")
	}
	return nil
}

// PDF renders the estimation document.
func (s *Service) PDF(ctx context.Context, id int64) ([]byte, *entity.Estimation, error) {
	est, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.Estimate(est)
	if err != nil {
		s.logger.Error("render estimate", zap.Int64("id", id), zap.Error(err))
		return nil, nil, errorbank.Internal("failed to render estimate", errorbank.WithCause(err))
	}
	return pdf, est, nil
}

func (s *Service) internal(span trace.Span, err error, message string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	s.logger.Error(message, zap.Error(err))
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func build(in CreateInput) (*entity.Estimation, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, errorbank.BadRequest("customer name is required")
	}
	if len(in.Items) == 0 {
		return nil, errorbank.BadRequest("estimation must contain at least one item")
	}

	est := &entity.Estimation{
		EstimateNo:      strings.TrimSpace(in.EstimateNo),
		CustomerName:    name,
		CustomerContact: strings.TrimSpace(in.CustomerContact),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		TotalItems:      len(in.Items),
		Items:           make([]*entity.EstimationItem, 0, len(in.Items)),
	}
	if est.EstimateNo == "" {
		est.EstimateNo = "EST-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	}

	grand := decimal.Zero
	for i, it := range in.Items {
		plantName := strings.TrimSpace(it.PlantName)
		switch {
		case plantName == "":
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: plant name is required", i+1))
		case it.Quantity <= 0:
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
		case it.Rate.IsNegative():
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: rate must not be negative", i+1))
		}
		rate := it.Rate.Round(2)
		total := rate.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		if !it.Total.IsZero() && !it.Total.Round(2).Equal(total) {
			return nil, errorbank.Unprocessable(fmt.Sprintf("item %d: total does not match rate x quantity", i+1),
				errorbank.WithDetails(map[string]any{"expected": total.StringFixed(2), "received": it.Total.StringFixed(2)}))
		}
		est.Items = append(est.Items, &entity.EstimationItem{PlantName: plantName, Rate: rate, Quantity: it.Quantity, Total: total})
		grand = grand.Add(total)
	}
	est.GrandTotal = grand

	if !in.GrandTotal.IsZero() && !in.GrandTotal.Round(2).Equal(grand) {
		return nil, errorbank.Unprocessable("grand total does not match estimation items",
			errorbank.WithDetails(map[string]any{"expected": grand.StringFixed(2), "received": in.GrandTotal.StringFixed(2)}))
	}
	return est, nil
}
