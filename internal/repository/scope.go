// Package repository binds the bun repositories into the transactional store used
// by the services.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/database"
	"github.com/Additional-Code/nursery/internal/repository/order"
	"github.com/Additional-Code/nursery/internal/repository/plant"
	"github.com/Additional-Code/nursery/internal/store"
)

var scopeTracer = otel.Tracer("github.com/Additional-Code/nursery/repository")

// Scope opens write transactions on the primary database.
type Scope struct {
	db          *bun.DB
	driver      string
	isolation   sql.IsolationLevel
	lockTimeout time.Duration
}

var _ store.Scope = (*Scope)(nil)

// NewScope builds a Scope using the configured isolation level and lock wait timeout.
func NewScope(cfg config.Config, conns *database.Connections) *Scope {
	return &Scope{
		db:          conns.Writer,
		driver:      cfg.Database.Driver,
		isolation:   database.IsolationLevel(cfg.Transaction.Isolation),
		lockTimeout: cfg.Transaction.LockTimeout,
	}
}

// InTx runs fn in a transaction that commits when fn returns nil.
func (s *Scope) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	ctx, span := scopeTracer.Start(ctx, "Scope.InTx", trace.WithAttributes(
		attribute.String("db.isolation", s.isolation.String()),
	))
	defer span.End()

	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: s.isolation}, func(ctx context.Context, tx bun.Tx) error {
		restore, err := s.applyLockTimeout(ctx, tx)
		if err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
		defer restore()
		return fn(ctx, &txScope{
			plants: plant.New(tx),
			orders: order.New(tx),
		})
	})
}

const mysqlLockWaitTimeout = "innodb_lock_wait_timeout"

// lockTimeoutSQL returns the statement applying timeout for driver and, when the
// setting is session scoped rather than transaction scoped, the query reading
// the value to put back once the transaction is done.
func lockTimeoutSQL(driver string, timeout time.Duration) (set, read string) {
	if timeout <= 0 {
		return "", ""
	}
	switch driver {
	case "postgres", "pg":
		return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds()), ""
	case "mysql":
		secs := int64(timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("SET SESSION %s = %d", mysqlLockWaitTimeout, secs),
			"SELECT @@SESSION." + mysqlLockWaitTimeout
	default:
		return "", ""
	}
}

// applyLockTimeout sets the lock wait timeout for this transaction. MySQL has no
// transaction-local form, so the session value is captured first and the
// returned func puts it back on the same connection before commit or rollback.
func (s *Scope) applyLockTimeout(ctx context.Context, tx bun.Tx) (func(), error) {
	noop := func() {}
	set, read := lockTimeoutSQL(s.driver, s.lockTimeout)
	if set == "" {
		return noop, nil
	}

	var previous int64
	if read != "" {
		if err := tx.QueryRowContext(ctx, read).Scan(&previous); err != nil {
			return noop, err
		}
	}
	if _, err := tx.ExecContext(ctx, set); err != nil {
		return noop, err
	}
	if read == "" {
		return noop, nil
	}
	return func() {
		// A failed restore leaves the timeout on a pooled connection; the next
		// Scope transaction on it sets its own value first.
		_, _ = tx.ExecContext(context.WithoutCancel(ctx),
			fmt.Sprintf("SET SESSION %s = %d", mysqlLockWaitTimeout, previous))
	}, nil
}

type txScope struct {
	plants *plant.Repository
	orders *order.Repository
}

func (t *txScope) Plants() store.PlantWriter { return t.plants }
func (t *txScope) Orders() store.OrderWriter { return t.orders }
