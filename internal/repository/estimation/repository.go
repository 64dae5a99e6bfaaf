package estimation

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

var repoTracer = otel.Tracer("github.com/Additional-Code/nursery/repository/estimation")

// Repository encapsulates read/write access for estimations.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

var _ store.EstimationRepository = (*Repository)(nil)

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists the estimation header and its items in one transaction.
func (r *Repository) Create(ctx context.Context, est *entity.Estimation) error {
	if est == nil {
		return errors.New("nil estimation")
	}
	ctx, span := repoTracer.Start(ctx, "EstimationRepository.Create", trace.WithAttributes(attribute.String("estimation.number", est.EstimateNo)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		est.CreatedAt = time.Now().UTC()
		if _, err := tx.NewInsert().Model(est).Exec(ctx); err != nil {
			return err
		}
		if len(est.Items) == 0 {
			return nil
		}
		for _, item := range est.Items {
			item.EstimationID = est.ID
		}
		_, err := tx.NewInsert().Model(&est.Items).Exec(ctx)
		return err
	})
	return dberr.Trace(span, err)
}

// GetByID fetches an estimation with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Estimation, error) {
	ctx, span := repoTracer.Start(ctx, "EstimationRepository.GetByID", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	est := new(entity.Estimation)
	err := r.reader.NewSelect().
		Model(est).
		Relation("Items", itemsByID).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	return est, nil
}

// List returns estimations newest first.
func (r *Repository) List(ctx context.Context) ([]*entity.Estimation, error) {
	ctx, span := repoTracer.Start(ctx, "EstimationRepository.List")
	defer span.End()

	var ests []*entity.Estimation
	err := r.reader.NewSelect().
		Model(&ests).
		Relation("Items", itemsByID).
		OrderExpr("?TableAlias.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, dberr.Trace(span, err)
	}
	return ests, nil
}

// Delete removes the estimation and its items.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "EstimationRepository.Delete", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entity.EstimationItem)(nil)).Where("estimation_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*entity.Estimation)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return dberr.RequireAffected(res)
	})
	return dberr.Trace(span, err)
}

func itemsByID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("id ASC")
}
