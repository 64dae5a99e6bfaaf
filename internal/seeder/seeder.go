package seeder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/service/auth"
	"github.com/Additional-Code/nursery/internal/service/plant"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Staff is the account created by Users.
type Staff struct {
	Name     string
	Email    string
	Password string
}

// PlantCatalog is the starter catalog for local setups.
var PlantCatalog = []plant.Input{
	sample("Snake Plant", "Sansevieria trifasciata", "Hardy indoor plant, low water needs. Great air purifier.", "399", 20, "Medium", "Low to Bright Indirect", "Low", "Indoor", "/images/snake-plant.jpg"),
	sample("Money Plant", "Epipremnum aureum", "Trailing vine, easy to care. Great for baskets and shelves.", "199", 35, "Small", "Bright Indirect", "Moderate", "Indoor", "/images/money-plant.jpg"),
	sample("Rubber Plant", "Ficus elastica", "Large glossy leaves, great statement plant.", "899", 8, "Large", "Bright Indirect", "Moderate", "Indoor", "/images/rubber-plant.jpg"),
	sample("Aloe Vera", "Aloe vera", "Low maintenance succulent with medicinal uses.", "149", 50, "Small", "Full Sun to Partial Shade", "Low", "Outdoor", "/images/aloe-vera.jpg"),
	sample("Peace Lily", "Spathiphyllum", "Beautiful white flowers, does well indoors.", "349", 12, "Medium", "Low to Bright Indirect", "Moderate", "Indoor", "/images/peace-lily.jpg"),
}

// Seeder performs database seeding for local/dev setups through the services, so
// seeded rows pass the same validation as API writes.
type Seeder struct {
	plants *plant.Service
	auth   *auth.Service
	logger *zap.Logger
}

// New constructs a Seeder.
func New(plants *plant.Service, authSvc *auth.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{plants: plants, auth: authSvc, logger: logger}
}

// Plants creates every catalog plant whose name is not present yet.
func (s *Seeder) Plants(ctx context.Context, catalog []plant.Input) (int, error) {
	existing, err := s.plants.List(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		names[strings.ToLower(p.Name)] = struct{}{}
	}

	created := 0
	for _, in := range catalog {
		if _, ok := names[strings.ToLower(*in.Name)]; ok {
			continue
		}
		if _, err := s.plants.Create(ctx, in); err != nil {
			return created, fmt.Errorf("seed plant %s: %w", *in.Name, err)
		}
		created++
	}

	s.logger.Info("seeded plants", zap.Int("created", created), zap.Int("skipped", len(catalog)-created))
	return created, nil
}

// Users registers the staff account unless the email is already taken.
func (s *Seeder) Users(ctx context.Context, staff Staff) (bool, error) {
	_, err := s.auth.Register(ctx, auth.RegisterInput{Name: staff.Name, Email: staff.Email, Password: staff.Password})
	if errorbank.IsKind(err, errorbank.KindConflict) {
		s.logger.Info("staff user already present", zap.String("email", staff.Email))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed staff user: %w", err)
	}
	s.logger.Info("seeded staff user", zap.String("email", staff.Email))
	return true, nil
}

func sample(name, botanical, description, price string, stock int, size, light, water, category, image string) plant.Input {
	p := decimal.RequireFromString(price)
	return plant.Input{
		Name:          &name,
		BotanicalName: &botanical,
		Description:   &description,
		Price:         &p,
		Stock:         &stock,
		Size:          &size,
		Light:         &light,
		Water:         &water,
		Category:      &category,
		ImageURL:      &image,
	}
}
