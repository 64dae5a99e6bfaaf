package plant

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/internal/store/storetest"
	"github.com/Additional-Code/nursery/internal/txretry"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

func ptr[T any](v T) *T { return &v }

func newService() (*Service, *storetest.Store) {
	st := storetest.New()
	return NewService(Params{
		Scope:   st,
		Plants:  st.PlantReader(),
		Retrier: txretry.New(3, time.Millisecond, zap.NewNop()),
		Logger:  zap.NewNop(),
	}), st
}

func TestCreate(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, Input{
		Name:     ptr(" Areca Palm "),
		Price:    ptr(decimal.RequireFromString("149.999")),
		Stock:    ptr(12),
		Category: ptr("Indoor"),
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Areca Palm", p.Name)
	assert.Equal(t, "150.00", p.Price.StringFixed(2))
	assert.Equal(t, entity.PlantStatusActive, p.Status)
	assert.Equal(t, 12, st.Stock(p.ID))
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService()
	cases := map[string]Input{
		"missing name":   {Price: ptr(decimal.NewFromInt(10))},
		"missing price":  {Name: ptr("Fern")},
		"blank name":     {Name: ptr("  "), Price: ptr(decimal.NewFromInt(10))},
		"negative stock": {Name: ptr("Fern"), Price: ptr(decimal.NewFromInt(10)), Stock: ptr(-1)},
		"stock too big":  {Name: ptr("Fern"), Price: ptr(decimal.NewFromInt(10)), Stock: ptr(entity.MaxQuantity + 1)},
		"negative price": {Name: ptr("Fern"), Price: ptr(decimal.NewFromInt(-10))},
		"bad status":     {Name: ptr("Fern"), Price: ptr(decimal.NewFromInt(10)), Status: ptr("retired")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest), "got %v", err)
		})
	}
}

func TestUpdate_PartialUnderLock(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()
	seeded := st.SeedPlant("Jade", "90", 4)

	updated, err := svc.Update(ctx, seeded.ID, Input{Stock: ptr(9), Status: ptr("inactive")})
	require.NoError(t, err)
	assert.Equal(t, "Jade", updated.Name)
	assert.Equal(t, "90.00", updated.Price.StringFixed(2))
	assert.Equal(t, 9, st.Stock(seeded.ID))
	assert.Equal(t, entity.PlantStatusInactive, updated.Status)
	assert.Equal(t, [][]int64{{seeded.ID}}, st.LockTraces())

	_, err = svc.Update(ctx, 404, Input{Stock: ptr(1)})
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))

	_, err = svc.Update(ctx, seeded.ID, Input{Stock: ptr(-3)})
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	assert.Equal(t, 9, st.Stock(seeded.ID))
}

func TestDelete(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()
	seeded := st.SeedPlant("Cactus", "50", 2)

	require.NoError(t, svc.Delete(ctx, seeded.ID))
	assert.Equal(t, -1, st.Stock(seeded.ID))

	_, err := svc.Get(ctx, seeded.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))

	err = svc.Delete(ctx, seeded.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestUpdate_RetriesConflicts(t *testing.T) {
	svc, st := newService()
	seeded := st.SeedPlant("Tulsi", "40", 1)

	st.FailNext(store.ErrConflict)
	_, err := svc.Update(context.Background(), seeded.ID, Input{Stock: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Attempts())
	assert.Equal(t, 5, st.Stock(seeded.ID))
}

func TestList_NewestFirst(t *testing.T) {
	svc, st := newService()
	st.SeedPlant("A", "1", 1)
	st.SeedPlant("B", "1", 1)

	plants, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "B", plants[0].Name)
}
