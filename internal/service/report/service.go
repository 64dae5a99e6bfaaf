// Package report aggregates committed orders into sales figures and purchase listings.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/cache"
	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/document"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

const topPlantsLimit = 5

var serviceTracer = otel.Tracer("github.com/Additional-Code/nursery/service/report")

// Module provides the report service to Fx.
var Module = fx.Provide(NewService)

// Summary is the aggregated view over every order.
type Summary struct {
	OrderCount         int             `json:"order_count"`
	PaidOrders         int             `json:"paid_orders"`
	PendingOrders      int             `json:"pending_orders"`
	Revenue            decimal.Decimal `json:"revenue"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	UnitsSold          int             `json:"units_sold"`
	TopPlants          []PlantSales    `json:"top_plants"`
}

// PlantSales is the quantity and value sold of one plant.
type PlantSales struct {
	PlantID   *int64          `json:"plant_id"`
	PlantName string          `json:"plant_name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Service builds reports from the order read side.
type Service struct {
	orders   store.OrderReader
	cache    cache.Store
	cacheTTL time.Duration
	renderer *document.Renderer
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders   store.OrderReader
	Cache    cache.Store
	Config   config.Config
	Renderer *document.Renderer
	Logger   *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:   p.Orders,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		renderer: p.Renderer,
		logger:   logger,
	}
}

// Summary returns sales totals. Units and top plants cover paid and pending orders;
// cancelled orders are only counted.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Summary")
	defer span.End()

	if cached, err := s.cachedSummary(ctx); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	}

	orders, err := s.orders.List(ctx, store.OrderFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("list orders for summary", zap.Error(err))
		return nil, errorbank.Internal("failed to build summary", errorbank.WithCause(err))
	}

	summary := summarize(orders)
	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cache.ReportSummaryKey, payload, s.cacheTTL); err != nil {
				s.logger.Warn("summary cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// Purchases lists paid orders newest first.
func (s *Service) Purchases(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Purchases")
	defer span.End()

	orders, err := s.orders.List(ctx, store.OrderFilter{Status: entity.OrderStatusPaid})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("list purchases", zap.Error(err))
		return nil, errorbank.Internal("failed to list purchases", errorbank.WithCause(err))
	}
	return orders, nil
}

// PurchasesPDF renders the purchase report.
func (s *Service) PurchasesPDF(ctx context.Context) ([]byte, error) {
	orders, err := s.Purchases(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.PurchaseReport(orders)
	if err != nil {
		s.logger.Error("render purchase report", zap.Error(err))
		return nil, errorbank.Internal("failed to render purchase report", errorbank.WithCause(err))
	}
	return pdf, nil
}

func (s *Service) cachedSummary(ctx context.Context) (*Summary, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	payload, err := s.cache.Get(ctx, cache.ReportSummaryKey)
	if err != nil {
		return nil, err
	}
	var out Summary
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func summarize(orders []*entity.Order) *Summary {
	out := &Summary{OrderCount: len(orders), Revenue: decimal.Zero, OutstandingBalance: decimal.Zero}

	type key struct {
		id   int64
		name string
	}
	sales := make(map[key]*PlantSales)
	for _, o := range orders {
		switch o.Status {
		case entity.OrderStatusPaid:
			out.PaidOrders++
			out.Revenue = out.Revenue.Add(o.GrandTotal)
		case entity.OrderStatusPending:
			out.PendingOrders++
			out.OutstandingBalance = out.OutstandingBalance.Add(o.GrandTotal.Sub(o.PaidAmount))
		default:
			continue
		}
		for _, it := range o.Items {
			out.UnitsSold += it.Quantity
			k := key{name: it.PlantName}
			if it.PlantID != nil {
				k.id = *it.PlantID
			}
			ps, ok := sales[k]
			if !ok {
				ps = &PlantSales{PlantID: it.PlantID, PlantName: it.PlantName, Revenue: decimal.Zero}
				sales[k] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue = ps.Revenue.Add(it.Total)
		}
	}

	top := make([]PlantSales, 0, len(sales))
	for _, ps := range sales {
		top = append(top, *ps)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].PlantName < top[j].PlantName
	})
	if len(top) > topPlantsLimit {
		top = top[:topPlantsLimit]
	}
	out.TopPlants = top
	return out
}
