package order

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/nursery/internal/database"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/repository/dberr"
	"github.com/Additional-Code/nursery/internal/store"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/nursery/repository/order")

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	db bun.IDB
}

var (
	_ store.OrderReader = (*Repository)(nil)
	_ store.OrderWriter = (*Repository)(nil)
)

// NewRepository wires a reader backed by the replica connection.
func NewRepository(conns *database.Connections) *Repository {
	return New(conns.Reader)
}

// New binds the repository to db, typically a bun.Tx.
func New(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// GetByID fetches an order and its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.db.NewSelect().
		Model(order).
		Relation("Items", itemsByID).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	return order, nil
}

// List returns orders newest first, optionally narrowed by status.
func (r *Repository) List(ctx context.Context, filter store.OrderFilter) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.String("order.status", string(filter.Status))))
	defer span.End()

	var orders []*entity.Order
	q := r.db.NewSelect().
		Model(&orders).
		Relation("Items", itemsByID).
		OrderExpr("?TableAlias.id DESC")
	if filter.Status != "" {
		q = q.Where("?TableAlias.status = ?", filter.Status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, dberr.Trace(span, err)
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

// GetForUpdate locks the order row and then loads its items.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetForUpdate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	if err := r.db.NewSelect().Model(order).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return nil, dberr.Trace(span, err)
	}
	err := r.db.NewSelect().
		Model(&order.Items).
		Where("order_id = ?", id).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	return order, nil
}

// Insert persists the header and then every item.
func (r *Repository) Insert(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert", trace.WithAttributes(
		attribute.String("order.number", order.OrderNo),
		attribute.Int("order.items", len(order.Items)),
	))
	defer span.End()

	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	if _, err := r.db.NewInsert().Model(order).Exec(ctx); err != nil {
		return dberr.Trace(span, err)
	}
	if len(order.Items) == 0 {
		return nil
	}

	for _, item := range order.Items {
		item.OrderID = order.ID
		item.CreatedAt = now
	}
	if _, err := r.db.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
		return dberr.Trace(span, err)
	}
	return nil
}

// Delete removes the order's items and then the order.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if _, err := r.db.NewDelete().Model((*entity.OrderItem)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
		return dberr.Trace(span, err)
	}
	res, err := r.db.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return dberr.Trace(span, err)
	}
	return dberr.Trace(span, dberr.RequireAffected(res))
}

func itemsByID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("id ASC")
}
