package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PlantStatus marks whether a plant is offered for sale.
type PlantStatus string

const (
	PlantStatusActive   PlantStatus = "Active"
	PlantStatusInactive PlantStatus = "Inactive"
)

// MaxQuantity bounds plant stock and order quantities to the INTEGER columns
// that store them.
const MaxQuantity = math.MaxInt32

// Plant is a catalog entry and the inventory row whose stock orders draw from.
type Plant struct {
	bun.BaseModel `bun:"table:plants"`

	ID            int64           `bun:",pk,autoincrement" json:"id"`
	Name          string          `bun:"name,notnull" json:"name"`
	BotanicalName string          `bun:"botanical_name" json:"botanical_name,omitempty"`
	Description   string          `bun:"description" json:"description,omitempty"`
	Price         decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	Stock         int             `bun:"stock,notnull" json:"stock"`
	Size          string          `bun:"size" json:"size,omitempty"`
	Light         string          `bun:"light" json:"light,omitempty"`
	Water         string          `bun:"water" json:"water,omitempty"`
	Category      string          `bun:"category" json:"category,omitempty"`
	ImageURL      string          `bun:"image_url" json:"image_url,omitempty"`
	Status        PlantStatus     `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero" json:"updated_at"`
}
