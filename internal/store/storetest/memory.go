// Package storetest provides an in-process store.Scope with row-level locking for
// exercising the order transaction manager without a database.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
)

const defaultLockTimeout = 2 * time.Second

type lockKey struct {
	table string
	id    int64
}

// Store keeps committed rows in memory. Writes made inside InTx are staged on the
// transaction and become visible to readers only on commit; row locks are held
// until the transaction ends, mirroring SELECT ... FOR UPDATE.
type Store struct {
	// LockTimeout bounds how long a transaction waits for a row lock before
	// failing with store.ErrConflict.
	LockTimeout time.Duration

	mu       sync.Mutex
	plants   map[int64]*entity.Plant
	orders   map[int64]*entity.Order
	locks    map[lockKey]chan struct{}
	plantSeq int64
	orderSeq int64
	itemSeq  int64
	failures []error
	attempts int
	traces   [][]int64
}

var _ store.Scope = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		LockTimeout: defaultLockTimeout,
		plants:      make(map[int64]*entity.Plant),
		orders:      make(map[int64]*entity.Order),
		locks:       make(map[lockKey]chan struct{}),
	}
}

// SeedPlant commits a plant directly and returns a copy of it.
func (s *Store) SeedPlant(name string, price string, stock int) *entity.Plant {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plantSeq++
	now := time.Now().UTC()
	p := &entity.Plant{
		ID:        s.plantSeq,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Status:    entity.PlantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.plants[p.ID] = clonePlant(p)
	return p
}

// Stock returns the committed stock of a plant, or -1 when it does not exist.
func (s *Store) Stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok {
		return -1
	}
	return p.Stock
}

// OrderCount returns the number of committed orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// FailNext makes the next len(errs) calls to InTx fail with the given errors
// before the unit of work runs.
func (s *Store) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// Attempts reports how many times InTx has been called.
func (s *Store) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// LockTraces returns, per finished transaction, the plant ids in the order their
// row locks were acquired.
func (s *Store) LockTraces() [][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]int64, len(s.traces))
	for i, t := range s.traces {
		out[i] = append([]int64(nil), t...)
	}
	return out
}

// InTx runs fn inside a transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	s.attempts++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	tx := &memTx{
		store:         s,
		held:          make(map[lockKey]struct{}),
		plants:        make(map[int64]*entity.Plant),
		deletedPlants: make(map[int64]struct{}),
		deletedOrders: make(map[int64]struct{}),
	}
	defer tx.release()

	err := fn(ctx, tx)
	if err == nil {
		err = s.commit(tx)
	}

	s.mu.Lock()
	s.traces = append(s.traces, tx.plantLocks)
	s.mu.Unlock()
	return err
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range tx.newOrders {
		for _, existing := range s.orders {
			if existing.OrderNo == o.OrderNo {
				return fmt.Errorf("order_no %s: %w", o.OrderNo, store.ErrDuplicate)
			}
		}
	}

	for id := range tx.deletedOrders {
		delete(s.orders, id)
	}
	for _, o := range tx.newOrders {
		s.orders[o.ID] = cloneOrder(o)
	}
	for id, p := range tx.plants {
		if _, gone := tx.deletedPlants[id]; gone {
			continue
		}
		s.plants[id] = clonePlant(p)
	}
	for id := range tx.deletedPlants {
		delete(s.plants, id)
		for _, o := range s.orders {
			for _, it := range o.Items {
				if it.PlantID != nil && *it.PlantID == id {
					it.PlantID = nil
				}
			}
		}
	}
	return nil
}

func (s *Store) lockChan(key lockKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// PlantReader exposes committed plants.
func (s *Store) PlantReader() store.PlantReader { return plantReader{s} }

// OrderReader exposes committed orders.
func (s *Store) OrderReader() store.OrderReader { return orderReader{s} }

type plantReader struct{ s *Store }

func (r plantReader) GetByID(_ context.Context, id int64) (*entity.Plant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePlant(p), nil
}

func (r plantReader) List(context.Context) ([]*entity.Plant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Plant, 0, len(r.s.plants))
	for _, p := range r.s.plants {
		out = append(out, clonePlant(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type orderReader struct{ s *Store }

func (r orderReader) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r orderReader) List(_ context.Context, filter store.OrderFilter) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memTx struct {
	store         *Store
	held          map[lockKey]struct{}
	plantLocks    []int64
	plants        map[int64]*entity.Plant
	deletedPlants map[int64]struct{}
	newOrders     []*entity.Order
	deletedOrders map[int64]struct{}
}

func (tx *memTx) Plants() store.PlantWriter { return plantTx{tx} }
func (tx *memTx) Orders() store.OrderWriter { return orderTx{tx} }

func (tx *memTx) lock(ctx context.Context, key lockKey) error {
	if _, ok := tx.held[key]; ok {
		return nil
	}
	ch := tx.store.lockChan(key)

	timeout := tx.store.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		tx.held[key] = struct{}{}
		if key.table == "plants" {
			tx.plantLocks = append(tx.plantLocks, key.id)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("lock %s/%d: %w", key.table, key.id, store.ErrConflict)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tx *memTx) holds(key lockKey) bool {
	_, ok := tx.held[key]
	return ok
}

func (tx *memTx) release() {
	for key := range tx.held {
		<-tx.store.lockChan(key)
	}
	tx.held = nil
}

// plant returns the transaction's view of a plant.
func (tx *memTx) plant(id int64) (*entity.Plant, bool) {
	if _, gone := tx.deletedPlants[id]; gone {
		return nil, false
	}
	if p, ok := tx.plants[id]; ok {
		return p, true
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	p, ok := tx.store.plants[id]
	if !ok {
		return nil, false
	}
	staged := clonePlant(p)
	tx.plants[id] = staged
	return staged, true
}

type plantTx struct{ tx *memTx }

func (w plantTx) GetForUpdate(ctx context.Context, id int64) (*entity.Plant, error) {
	if err := w.tx.lock(ctx, lockKey{"plants", id}); err != nil {
		return nil, err
	}
	p, ok := w.tx.plant(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePlant(p), nil
}

func (w plantTx) Insert(ctx context.Context, plant *entity.Plant) error {
	s := w.tx.store
	s.mu.Lock()
	s.plantSeq++
	plant.ID = s.plantSeq
	s.mu.Unlock()

	now := time.Now().UTC()
	plant.CreatedAt, plant.UpdatedAt = now, now
	if err := w.tx.lock(ctx, lockKey{"plants", plant.ID}); err != nil {
		return err
	}
	w.tx.plants[plant.ID] = clonePlant(plant)
	return nil
}

func (w plantTx) Update(_ context.Context, plant *entity.Plant) error {
	if !w.tx.holds(lockKey{"plants", plant.ID}) {
		return fmt.Errorf("update plant %d without row lock", plant.ID)
	}
	if _, ok := w.tx.plant(plant.ID); !ok {
		return store.ErrNotFound
	}
	if plant.Stock < 0 {
		return fmt.Errorf("plant %d: stock check constraint violated", plant.ID)
	}
	plant.UpdatedAt = time.Now().UTC()
	w.tx.plants[plant.ID] = clonePlant(plant)
	return nil
}

func (w plantTx) AdjustStock(_ context.Context, id int64, delta int) error {
	if !w.tx.holds(lockKey{"plants", id}) {
		return fmt.Errorf("adjust stock of plant %d without row lock", id)
	}
	p, ok := w.tx.plant(id)
	if !ok {
		return store.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return fmt.Errorf("plant %d: stock check constraint violated", id)
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (w plantTx) Delete(_ context.Context, id int64) error {
	if !w.tx.holds(lockKey{"plants", id}) {
		return fmt.Errorf("delete plant %d without row lock", id)
	}
	if _, ok := w.tx.plant(id); !ok {
		return store.ErrNotFound
	}
	w.tx.deletedPlants[id] = struct{}{}
	return nil
}

type orderTx struct{ tx *memTx }

func (w orderTx) GetForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	if err := w.tx.lock(ctx, lockKey{"orders", id}); err != nil {
		return nil, err
	}
	if _, gone := w.tx.deletedOrders[id]; gone {
		return nil, store.ErrNotFound
	}
	s := w.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (w orderTx) Insert(_ context.Context, order *entity.Order) error {
	for _, o := range w.tx.newOrders {
		if o.OrderNo == order.OrderNo {
			return fmt.Errorf("order_no %s: %w", order.OrderNo, store.ErrDuplicate)
		}
	}

	s := w.tx.store
	s.mu.Lock()
	for _, o := range s.orders {
		if o.OrderNo == order.OrderNo {
			s.mu.Unlock()
			return fmt.Errorf("order_no %s: %w", order.OrderNo, store.ErrDuplicate)
		}
	}
	s.orderSeq++
	order.ID = s.orderSeq
	for _, it := range order.Items {
		s.itemSeq++
		it.ID = s.itemSeq
		it.OrderID = order.ID
	}
	s.mu.Unlock()

	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	for _, it := range order.Items {
		it.CreatedAt = now
	}
	w.tx.newOrders = append(w.tx.newOrders, cloneOrder(order))
	return nil
}

func (w orderTx) Delete(_ context.Context, id int64) error {
	if !w.tx.holds(lockKey{"orders", id}) {
		return fmt.Errorf("delete order %d without row lock", id)
	}
	w.tx.deletedOrders[id] = struct{}{}
	return nil
}

func clonePlant(p *entity.Plant) *entity.Plant {
	c := *p
	return &c
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = make([]*entity.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		ic := *it
		if it.PlantID != nil {
			id := *it.PlantID
			ic.PlantID = &id
		}
		c.Items = append(c.Items, &ic)
	}
	return &c
}
