package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/cache"
	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/messaging"
	ordersvc "github.com/Additional-Code/nursery/internal/service/order"
	"github.com/Additional-Code/nursery/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/nursery/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventsHandler consumes order.created and order.deleted events. Both drop
// the cached order and the cached sales summary so other API instances stop serving
// stale reads.
func NewOrderEventsHandler(logger *zap.Logger, cfg config.Config, store cache.Store) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("messaging.key", string(msg.Key)),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err), zap.Int64("offset", msg.Offset))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", event.Type), attribute.Int64("order.id", event.OrderID))

		switch event.Type {
		case ordersvc.EventOrderCreated, ordersvc.EventOrderDeleted:
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
			return nil
		}

		for _, key := range []string{cache.OrderKey(event.OrderID), cache.ReportSummaryKey} {
			if err := store.Delete(ctx, key); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "cache invalidation failed")
				return fmt.Errorf("invalidate %s: %w", key, err)
			}
		}

		units := 0
		for _, it := range event.Items {
			units += it.Quantity
		}
		logger.Info("order event processed",
			zap.String("type", event.Type),
			zap.Int64("id", event.OrderID),
			zap.String("order_no", event.OrderNo),
			zap.String("status", string(event.Status)),
			zap.Int("units", units),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
