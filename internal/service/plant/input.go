package plant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

// Input carries plant attributes. On update, nil fields keep their current value.
type Input struct {
	Name          *string
	BotanicalName *string
	Description   *string
	Price         *decimal.Decimal
	Stock         *int
	Size          *string
	Light         *string
	Water         *string
	Category      *string
	ImageURL      *string
	Status        *string
}

func parseStatus(raw string) (entity.PlantStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "active":
		return entity.PlantStatusActive, nil
	case "inactive":
		return entity.PlantStatusInactive, nil
	default:
		return "", errorbank.BadRequest(fmt.Sprintf("unknown plant status %q", raw))
	}
}

// apply copies the set fields of in onto p and validates the result.
func (in Input) apply(p *entity.Plant) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.BotanicalName, in.BotanicalName)
	set(&p.Description, in.Description)
	set(&p.Size, in.Size)
	set(&p.Light, in.Light)
	set(&p.Water, in.Water)
	set(&p.Category, in.Category)
	set(&p.ImageURL, in.ImageURL)
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Status != nil || p.Status == "" {
		var raw string
		if in.Status != nil {
			raw = *in.Status
		}
		st, err := parseStatus(raw)
		if err != nil {
			return err
		}
		p.Status = st
	}

	switch {
	case p.Name == "":
		return errorbank.BadRequest("plant name is required")
	case p.Price.IsNegative():
		return errorbank.BadRequest("price must not be negative")
	case p.Stock < 0:
		return errorbank.BadRequest("stock must not be negative")
	case p.Stock > entity.MaxQuantity:
		return errorbank.BadRequest(fmt.Sprintf("stock must not exceed %d", entity.MaxQuantity))
	}
	return nil
}
