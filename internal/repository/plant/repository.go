package plant

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

var repoTracer = otel.Tracer("github.com/Additional-Code/nursery/repository/plant")

// Repository reads and writes plants through a bun connection or transaction.
type Repository struct {
	db bun.IDB
}

var (
	_ store.PlantReader = (*Repository)(nil)
	_ store.PlantWriter = (*Repository)(nil)
)

// NewRepository returns a reader bound to the replica connection.
func NewRepository(conns *database.Connections) *Repository {
	return New(conns.Reader)
}

// New binds the repository to db, typically a bun.Tx.
func New(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// GetByID fetches a plant by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Plant, error) {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.GetByID", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	plant := new(entity.Plant)
	if err := r.db.NewSelect().Model(plant).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, dberr.Trace(span, err)
	}
	return plant, nil
}

// List returns every plant, newest first.
func (r *Repository) List(ctx context.Context) ([]*entity.Plant, error) {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.List")
	defer span.End()

	var plants []*entity.Plant
	err := r.db.NewSelect().Model(&plants).OrderExpr("id DESC").Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	span.SetAttributes(attribute.Int("plant.count", len(plants)))
	return plants, nil
}

// GetForUpdate reads the plant holding an exclusive row lock.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*entity.Plant, error) {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.GetForUpdate", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	plant := new(entity.Plant)
	err := r.db.NewSelect().Model(plant).Where("id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	return plant, nil
}

// Insert persists a new plant.
func (r *Repository) Insert(ctx context.Context, plant *entity.Plant) error {
	if plant == nil {
		return errors.New("nil plant")
	}
	ctx, span := repoTracer.Start(ctx, "PlantRepository.Insert", trace.WithAttributes(attribute.String("plant.name", plant.Name)))
	defer span.End()

	now := time.Now().UTC()
	plant.CreatedAt, plant.UpdatedAt = now, now
	_, err := r.db.NewInsert().Model(plant).Exec(ctx)
	return dberr.Trace(span, err)
}

// Update overwrites every mutable column of the plant.
func (r *Repository) Update(ctx context.Context, plant *entity.Plant) error {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.Update", trace.WithAttributes(attribute.Int64("plant.id", plant.ID)))
	defer span.End()

	plant.UpdatedAt = time.Now().UTC()
	res, err := r.db.NewUpdate().Model(plant).ExcludeColumn("id", "created_at").WherePK().Exec(ctx)
	if err != nil {
		return dberr.Trace(span, err)
	}
	return dberr.Trace(span, dberr.RequireAffected(res))
}

// AdjustStock adds delta to the plant's stock in a single statement.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) error {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.AdjustStock", trace.WithAttributes(
		attribute.Int64("plant.id", id),
		attribute.Int("stock.delta", delta),
	))
	defer span.End()

	res, err := r.db.NewUpdate().
		Model((*entity.Plant)(nil)).
		Set("stock = stock + ?", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return dberr.Trace(span, err)
	}
	return dberr.Trace(span, dberr.RequireAffected(res))
}

// Delete clears order item references to the plant and then removes it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "PlantRepository.Delete", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	_, err := r.db.NewUpdate().
		Model((*entity.OrderItem)(nil)).
		Set("plant_id = NULL").
		Where("plant_id = ?", id).
		Exec(ctx)
	if err != nil {
		return dberr.Trace(span, err)
	}

	res, err := r.db.NewDelete().Model((*entity.Plant)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return dberr.Trace(span, err)
	}
	return dberr.Trace(span, dberr.RequireAffected(res))
}
