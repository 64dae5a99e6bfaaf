// Package store defines the transactional inventory contract the order and catalog
// services run against. Implementations live in internal/repository (bun) and
// internal/store/storetest (in-process).
package store

import (
	"context"
	"errors"

	"github.com/Additional-Code/nursery/internal/entity"
)

var (
	// ErrNotFound is returned when a plant, order or other row is absent.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (order number, email) already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict signals a transient lock conflict (deadlock, lock wait timeout).
	// Units of work failing with it are safe to retry.
	ErrConflict = errors.New("transient lock conflict")
)

// Scope runs units of work inside a single database transaction. The transaction
// is committed when fn returns nil and rolled back otherwise.
type Scope interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the writers bound to one open transaction.
type Tx interface {
	Plants() PlantWriter
	Orders() OrderWriter
}

// PlantWriter mutates plants inside a transaction. Stock may only change through
// AdjustStock or Update on a row previously locked with GetForUpdate.
type PlantWriter interface {
	// GetForUpdate reads the plant and holds an exclusive row lock until the
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*entity.Plant, error)
	Insert(ctx context.Context, plant *entity.Plant) error
	Update(ctx context.Context, plant *entity.Plant) error
	// AdjustStock adds delta (negative to decrement) to the plant's stock.
	AdjustStock(ctx context.Context, id int64, delta int) error
	// Delete removes the plant and clears order item references to it.
	Delete(ctx context.Context, id int64) error
}

// OrderWriter mutates orders inside a transaction.
type OrderWriter interface {
	// GetForUpdate loads the order with its items and locks the order row.
	GetForUpdate(ctx context.Context, id int64) (*entity.Order, error)
	// Insert persists the header and then every item, assigning identifiers.
	Insert(ctx context.Context, order *entity.Order) error
	// Delete removes the order's items and then the order.
	Delete(ctx context.Context, id int64) error
}

// PlantReader serves committed plant data outside of a transaction.
type PlantReader interface {
	GetByID(ctx context.Context, id int64) (*entity.Plant, error)
	List(ctx context.Context) ([]*entity.Plant, error)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status entity.OrderStatus
}

// OrderReader serves committed orders (with items) outside of a transaction.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
}

// EstimationRepository persists quotations. Estimations never touch stock.
type EstimationRepository interface {
	Create(ctx context.Context, est *entity.Estimation) error
	GetByID(ctx context.Context, id int64) (*entity.Estimation, error)
	List(ctx context.Context) ([]*entity.Estimation, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository persists staff accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}
