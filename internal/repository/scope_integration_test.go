//go:build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/database"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/migration"
	"github.com/Additional-Code/nursery/internal/repository/order"
	"github.com/Additional-Code/nursery/internal/repository/plant"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/internal/txretry"
)

func setupPostgres(t *testing.T) (*database.Connections, config.Config) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("nursery_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	conns := &database.Connections{Writer: db, Reader: db}
	cfg := config.Config{
		Database:    config.Database{Driver: "postgres"},
		Transaction: config.Transaction{MaxAttempts: 3, RetryBackoff: 10 * time.Millisecond, Isolation: "read_committed", LockTimeout: 500 * time.Millisecond},
	}

	mig, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))

	return conns, cfg
}

func seedPlant(t *testing.T, scope store.Scope, name string, stock int) *entity.Plant {
	t.Helper()
	p := &entity.Plant{Name: name, Price: decimal.RequireFromString("150.00"), Stock: stock, Status: entity.PlantStatusActive}
	require.NoError(t, scope.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Plants().Insert(ctx, p)
	}))
	require.NotZero(t, p.ID)
	return p
}

func TestScope_StockCheckConstraintRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	conns, cfg := setupPostgres(t)
	scope := NewScope(cfg, conns)
	ctx := context.Background()

	p := seedPlant(t, scope, "Areca Palm", 3)

	err := scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Plants().GetForUpdate(ctx, p.ID); err != nil {
			return err
		}
		return tx.Plants().AdjustStock(ctx, p.ID, -4)
	})
	require.Error(t, err)

	got, err := plant.NewRepository(conns).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestScope_OrderRoundTripAndPlantDeletion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	conns, cfg := setupPostgres(t)
	scope := NewScope(cfg, conns)
	ctx := context.Background()

	p := seedPlant(t, scope, "Snake Plant", 10)
	plantID := p.ID

	o := &entity.Order{
		OrderNo:      "ORD-IT-1",
		CustomerName: "Asha",
		SubTotal:     decimal.RequireFromString("300.00"),
		GrandTotal:   decimal.RequireFromString("300.00"),
		Status:       entity.OrderStatusPending,
		Items: []*entity.OrderItem{{
			PlantID: &plantID, PlantName: p.Name,
			Rate: p.Price, Quantity: 2, Total: decimal.RequireFromString("300.00"),
		}},
	}
	require.NoError(t, scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Plants().GetForUpdate(ctx, plantID); err != nil {
			return err
		}
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		return tx.Plants().AdjustStock(ctx, plantID, -2)
	}))

	reader := order.NewRepository(conns)
	got, err := reader.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Snake Plant", got.Items[0].PlantName)

	dup := &entity.Order{OrderNo: "ORD-IT-1", CustomerName: "Ravi", Status: entity.OrderStatusPending}
	err = scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Orders().Insert(ctx, dup)
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Plants().GetForUpdate(ctx, plantID); err != nil {
			return err
		}
		return tx.Plants().Delete(ctx, plantID)
	}))

	got, err = reader.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Items[0].PlantID)
	assert.Equal(t, "Snake Plant", got.Items[0].PlantName)
}

func TestScope_LockTimeoutIsTransient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	conns, cfg := setupPostgres(t)
	scope := NewScope(cfg, conns)
	ctx := context.Background()

	p := seedPlant(t, scope, "Money Plant", 5)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.Plants().GetForUpdate(ctx, p.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := scope.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Plants().GetForUpdate(ctx, p.ID)
		return err
	})
	close(release)
	require.NoError(t, <-done)

	require.Error(t, err)
	assert.True(t, txretry.IsTransient(err), "expected lock_not_available, got %v", err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
