package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/service/auth"
	"github.com/Additional-Code/nursery/internal/service/plant"
	"github.com/Additional-Code/nursery/internal/store/storetest"
	"github.com/Additional-Code/nursery/internal/txretry"
)

func newSeeder() (*Seeder, *storetest.Store) {
	st := storetest.New()
	plants := plant.NewService(plant.Params{
		Scope:   st,
		Plants:  st.PlantReader(),
		Retrier: txretry.New(1, time.Millisecond, nil),
	})
	var cfg config.Config
	cfg.Auth = config.Auth{JWTSecret: "seed", TokenTTL: time.Hour, Issuer: "nursery"}
	authSvc := auth.NewService(auth.Params{Users: storetest.NewUsers(), Config: cfg})
	return New(plants, authSvc, zap.NewNop()), st
}

func TestPlants_Idempotent(t *testing.T) {
	s, st := newSeeder()
	ctx := context.Background()

	st.SeedPlant("money plant", "150", 3)

	created, err := s.Plants(ctx, PlantCatalog)
	require.NoError(t, err)
	assert.Equal(t, len(PlantCatalog)-1, created)

	created, err = s.Plants(ctx, PlantCatalog)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestUsers_Idempotent(t *testing.T) {
	s, _ := newSeeder()
	ctx := context.Background()
	staff := Staff{Name: "Admin", Email: "admin@nursery.local", Password: "change-me"}

	created, err := s.Users(ctx, staff)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Users(ctx, staff)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.Users(ctx, Staff{Email: "bad", Password: "change-me"})
	assert.Error(t, err)
}
