package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
)

// Estimations is an in-memory store.EstimationRepository.
type Estimations struct {
	mu      sync.Mutex
	rows    map[int64]*entity.Estimation
	seq     int64
	itemSeq int64
}

var _ store.EstimationRepository = (*Estimations)(nil)

// NewEstimations returns an empty repository.
func NewEstimations() *Estimations {
	return &Estimations{rows: make(map[int64]*entity.Estimation)}
}

func (r *Estimations) Create(_ context.Context, est *entity.Estimation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.EstimateNo == est.EstimateNo {
			return fmt.Errorf("estimate_no %s: %w", est.EstimateNo, store.ErrDuplicate)
		}
	}
	r.seq++
	est.ID = r.seq
	est.CreatedAt = time.Now().UTC()
	for _, it := range est.Items {
		r.itemSeq++
		it.ID = r.itemSeq
		it.EstimationID = est.ID
	}
	r.rows[est.ID] = cloneEstimation(est)
	return nil
}

func (r *Estimations) GetByID(_ context.Context, id int64) (*entity.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneEstimation(e), nil
}

func (r *Estimations) List(context.Context) ([]*entity.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Estimation, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, cloneEstimation(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Estimations) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func cloneEstimation(e *entity.Estimation) *entity.Estimation {
	c := *e
	c.Items = make([]*entity.EstimationItem, 0, len(e.Items))
	for _, it := range e.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}

// Users is an in-memory store.UserRepository.
type Users struct {
	mu   sync.Mutex
	rows map[int64]*entity.User
	seq  int64
}

var _ store.UserRepository = (*Users)(nil)

// NewUsers returns an empty repository.
func NewUsers() *Users {
	return &Users{rows: make(map[int64]*entity.User)}
}

func (r *Users) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == u.Email {
			return fmt.Errorf("email %s: %w", u.Email, store.ErrDuplicate)
		}
	}
	r.seq++
	u.ID = r.seq
	u.CreatedAt = time.Now().UTC()
	c := *u
	r.rows[u.ID] = &c
	return nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Users) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}
