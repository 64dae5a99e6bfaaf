package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/cache"
	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/document"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/messaging"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/internal/txretry"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/nursery/service/order")
	serviceMeter  = otel.Meter("github.com/Additional-Code/nursery/service/order")
)

// Service places and removes orders, keeping plant stock consistent.
type Service struct {
	scope       store.Scope
	orders      store.OrderReader
	retrier     *txretry.Retrier
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger
	publisher   messaging.Client
	messaging   messagingConfig
	renderer    *document.Renderer
	invoiceBase string
	now         func() time.Time

	created  metric.Int64Counter
	deleted  metric.Int64Counter
	rejected metric.Int64Counter
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Scope     store.Scope
	Orders    store.OrderReader
	Retrier   *txretry.Retrier
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Renderer  *document.Renderer
}

// Placed is a committed order plus where its invoice can be fetched.
type Placed struct {
	Order      *entity.Order
	InvoiceURL string
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		scope:       p.Scope,
		orders:      p.Orders,
		retrier:     p.Retrier,
		cache:       p.Cache,
		cacheTTL:    p.Config.Cache.DefaultTTL,
		logger:      logger,
		publisher:   p.Publisher,
		renderer:    p.Renderer,
		invoiceBase: strings.TrimRight(p.Config.Business.BaseURL, "/"),
		now:         func() time.Time { return time.Now().UTC() },
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
	if s.retrier == nil {
		s.retrier = txretry.New(p.Config.Transaction.MaxAttempts, p.Config.Transaction.RetryBackoff, logger)
	}

	s.created, _ = serviceMeter.Int64Counter("orders_created_total", metric.WithDescription("Orders committed"))
	s.deleted, _ = serviceMeter.Int64Counter("orders_deleted_total", metric.WithDescription("Orders deleted with stock restored"))
	s.rejected, _ = serviceMeter.Int64Counter("orders_rejected_total", metric.WithDescription("Order placements rejected"))
	return s
}

// Create validates the request, locks every referenced plant in ascending id order,
// checks availability, persists the order with its item snapshots and decrements
// stock, all in one transaction. Transient lock conflicts are retried.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Placed, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.String("order.number", in.OrderNo),
		attribute.Int("order.items", len(in.Items)),
	))
	defer span.End()

	p, err := validate(in)
	if err != nil {
		s.reject(ctx, span, err)
		return nil, err
	}
	orderNo := p.in.OrderNo
	if orderNo == "" {
		orderNo = newOrderNo()
	}

	var placed *entity.Order
	err = s.retrier.Do(ctx, "order.create", func(ctx context.Context) error {
		return s.scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			plants := make(map[int64]*entity.Plant, len(p.plantIDs))
			for _, id := range p.plantIDs {
				plant, err := tx.Plants().GetForUpdate(ctx, id)
				if errors.Is(err, store.ErrNotFound) {
					return errorbank.NotFound(fmt.Sprintf("plant %d not found", id), errorbank.WithDetail("plant_id", id))
				}
				if err != nil {
					return fmt.Errorf("lock plant %d: %w", id, err)
				}
				if plant.Stock < p.demand[id] {
					return errorbank.Unprocessable(
						fmt.Sprintf("insufficient stock for %s: available %d, requested %d", plant.Name, plant.Stock, p.demand[id]),
						errorbank.WithDetails(map[string]any{
							"plant_id":   id,
							"plant_name": plant.Name,
							"available":  plant.Stock,
							"requested":  p.demand[id],
						}),
					)
				}
				plants[id] = plant
			}

			order, err := p.build(orderNo, plants)
			if err != nil {
				return err
			}
			if err := tx.Orders().Insert(ctx, order); err != nil {
				return fmt.Errorf("insert order: %w", err)
			}
			for _, id := range p.plantIDs {
				if err := tx.Plants().AdjustStock(ctx, id, -p.demand[id]); err != nil {
					return fmt.Errorf("decrement stock of plant %d: %w", id, err)
				}
			}
			placed = order
			return nil
		})
	})
	if err != nil {
		err = s.translate(err, "failed to create order")
		s.reject(ctx, span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", placed.ID))
	if s.created != nil {
		s.created.Add(ctx, 1)
	}
	s.logger.Info("order created",
		zap.Int64("id", placed.ID),
		zap.String("order_no", placed.OrderNo),
		zap.String("grand_total", placed.GrandTotal.StringFixed(2)),
	)

	if err := s.storeInCache(ctx, placed); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", placed.ID), zap.Error(err))
	}
	s.invalidate(ctx, cache.ReportSummaryKey)
	s.publish(ctx, newEvent(EventOrderCreated, placed, s.now()))

	return &Placed{Order: placed, InvoiceURL: s.InvoiceURL(placed.ID)}, nil
}

// Delete removes an order and returns its quantities to stock. Plants deleted since
// the order was placed are skipped.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if id <= 0 {
		return errorbank.BadRequest("invalid order id")
	}

	var removed *entity.Order
	err := s.retrier.Do(ctx, "order.delete", func(ctx context.Context) error {
		return s.scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			order, err := tx.Orders().GetForUpdate(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
			}
			if err != nil {
				return fmt.Errorf("lock order %d: %w", id, err)
			}

			plantIDs, restore := restoration(order.Items)
			for _, pid := range plantIDs {
				if _, err := tx.Plants().GetForUpdate(ctx, pid); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						s.logger.Debug("plant gone, skipping stock restore", zap.Int64("order_id", id), zap.Int64("plant_id", pid))
						continue
					}
					return fmt.Errorf("lock plant %d: %w", pid, err)
				}
				if err := tx.Plants().AdjustStock(ctx, pid, restore[pid]); err != nil {
					return fmt.Errorf("restore stock of plant %d: %w", pid, err)
				}
			}
			if err := tx.Orders().Delete(ctx, id); err != nil {
				return fmt.Errorf("delete order %d: %w", id, err)
			}
			removed = order
			return nil
		})
	})
	if err != nil {
		err = s.translate(err, "failed to delete order")
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	if s.deleted != nil {
		s.deleted.Add(ctx, 1)
	}
	s.logger.Info("order deleted", zap.Int64("id", id), zap.String("order_no", removed.OrderNo))

	s.invalidate(ctx, cache.OrderKey(id), cache.ReportSummaryKey)
	s.publish(ctx, newEvent(EventOrderDeleted, removed, s.now()))
	return nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return order, nil
}

// List returns orders newest first. An empty status lists every order.
func (s *Service) List(ctx context.Context, status string) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	var filter store.OrderFilter
	if strings.TrimSpace(status) != "" {
		st, ok := entity.ParseOrderStatus(status)
		if !ok {
			return nil, errorbank.BadRequest(fmt.Sprintf("unknown order status %q", status))
		}
		filter.Status = st
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Invoice renders the PDF invoice of an order.
func (s *Service) Invoice(ctx context.Context, id int64) ([]byte, *entity.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	_, span := serviceTracer.Start(ctx, "OrderService.Invoice", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	pdf, err := s.renderer.Invoice(order)
	if err != nil {
		s.logger.Error("render invoice", zap.Int64("id", id), zap.Error(err))
		return nil, nil, errorbank.Internal("failed to render invoice", errorbank.WithCause(err))
	}
	return pdf, order, nil
}

// InvoiceURL is the API path serving the invoice of an order.
func (s *Service) InvoiceURL(id int64) string {
	return fmt.Sprintf("%s/orders/%d/invoice", s.invoiceBase, id)
}

// translate maps storage errors to AppErrors. Unclassified failures are logged and
// reported with a generic message.
func (s *Service) translate(err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, store.ErrDuplicate):
		return errorbank.Conflict("order number already exists", errorbank.WithCause(err))
	case errors.Is(err, store.ErrNotFound):
		return errorbank.NotFound("order not found", errorbank.WithCause(err))
	}
	fields := []zap.Field{zap.Error(err)}
	if txretry.IsTransient(err) {
		fields = append(fields, zap.Int("attempts", s.retrier.MaxAttempts()))
	}
	s.logger.Error(message, fields...)
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) reject(ctx context.Context, span trace.Span, err error) {
	kind := errorbank.From(err).Kind()
	span.SetStatus(codes.Error, string(kind))
	if s.rejected != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(kind))))
	}
}

func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", event.OrderID)), payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, cache.OrderKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cache.OrderKey(order.ID), bytes, s.cacheTTL)
}

// restoration sums item quantities per still-referenced plant and returns the plant
// ids in ascending order.
func restoration(items []*entity.OrderItem) ([]int64, map[int64]int) {
	restore := make(map[int64]int)
	var ids []int64
	for _, it := range items {
		if it.PlantID == nil {
			continue
		}
		if _, seen := restore[*it.PlantID]; !seen {
			ids = append(ids, *it.PlantID)
		}
		restore[*it.PlantID] += it.Quantity
	}
	sortIDs(ids)
	return ids, restore
}

func newOrderNo() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
