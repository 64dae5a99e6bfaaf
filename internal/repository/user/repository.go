package user

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

var repoTracer = otel.Tracer("github.com/Additional-Code/nursery/repository/user")

// Repository stores staff accounts.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

var _ store.UserRepository = (*Repository)(nil)

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a user. A taken email yields store.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	u.CreatedAt = time.Now().UTC()
	_, err := r.writer.NewInsert().Model(u).Exec(ctx)
	return dberr.Trace(span, err)
}

// GetByEmail looks a user up by login email. Reads go to the writer so a login
// right after registration sees the new row.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByEmail")
	defer span.End()

	u := new(entity.User)
	if err := r.writer.NewSelect().Model(u).Where("email = ?", email).Scan(ctx); err != nil {
		return nil, dberr.Trace(span, err)
	}
	return u, nil
}

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u := new(entity.User)
	if err := r.reader.NewSelect().Model(u).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, dberr.Trace(span, err)
	}
	return u, nil
}
