package txretry

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-retry"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/store"
)

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// Postgres SQLSTATE codes treated as transient.
var pgTransientCodes = map[string]struct{}{
	"40P01": {}, // deadlock_detected
	"40001": {}, // serialization_failure
	"55P03": {}, // lock_not_available
}

// Module provides the Retrier to Fx.
var Module = fx.Provide(NewFromConfig)

// Retrier re-runs transactional units of work that fail with a transient lock
// conflict. Attempt n waits Backoff*n before attempt n+1.
type Retrier struct {
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
	retries     metric.Int64Counter
	duration    metric.Float64Histogram
}

// New builds a Retrier. maxAttempts below one is treated as one.
func New(maxAttempts int, backoff time.Duration, logger *zap.Logger) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter("github.com/Additional-Code/nursery/txretry")
	retries, err := meter.Int64Counter(
		"tx_retries_total",
		metric.WithDescription("Transactional units of work retried after a transient conflict"),
	)
	if err != nil {
		logger.Warn("create retry counter", zap.Error(err))
	}
	duration, err := meter.Float64Histogram(
		"tx_duration_seconds",
		metric.WithDescription("Wall time of a unit of work including retries and backoff"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("create duration histogram", zap.Error(err))
	}
	return &Retrier{maxAttempts: maxAttempts, backoff: backoff, logger: logger, retries: retries, duration: duration}
}

// NewFromConfig builds a Retrier from the transaction configuration.
func NewFromConfig(cfg config.Config, logger *zap.Logger) *Retrier {
	return New(cfg.Transaction.MaxAttempts, cfg.Transaction.RetryBackoff, logger)
}

// MaxAttempts reports the configured attempt bound.
func (r *Retrier) MaxAttempts() int { return r.maxAttempts }

// Do runs fn until it succeeds, fails with a non-transient error, or the attempt
// bound is reached. On exhaustion the last transient error is returned.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	if r.duration != nil {
		start := time.Now()
		defer func() {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			r.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("op", op),
				attribute.String("outcome", outcome),
			))
		}()
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(r.maxAttempts-1), linear(r.backoff, &attempt))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt < r.maxAttempts {
			r.logger.Warn("transient conflict, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.maxAttempts),
				zap.Error(err),
			)
			if r.retries != nil {
				r.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
			}
		}
		return retry.RetryableError(err)
	})
}

// linear waits base*n after the n-th failed attempt.
func linear(base time.Duration, attempt *int) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		return base * time.Duration(*attempt), false
	})
}

// IsTransient reports whether err is a storage-layer lock conflict that is safe to
// retry: deadlocks, lock wait timeouts and serialization failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrConflict) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		_, ok := pgTransientCodes[pgErr.Field('C')]
		return ok
	}
	return false
}
