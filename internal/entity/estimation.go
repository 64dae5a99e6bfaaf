package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Estimation is a priced quote. It never touches stock.
type Estimation struct {
	bun.BaseModel `bun:"table:estimations"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	EstimateNo      string          `bun:"estimate_no,notnull,unique" json:"estimate_no"`
	CustomerName    string          `bun:"customer_name,notnull" json:"customer_name"`
	CustomerContact string          `bun:"customer_contact" json:"customer_contact,omitempty"`
	CustomerAddress string          `bun:"customer_address" json:"customer_address,omitempty"`
	TotalItems      int             `bun:"total_items,notnull" json:"total_items"`
	GrandTotal      decimal.Decimal `bun:"grand_total,type:numeric(12,2),notnull" json:"grand_total"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`

	Items []*EstimationItem `bun:"rel:has-many,join:id=estimation_id" json:"items"`
}

// EstimationItem is a single quoted line.
type EstimationItem struct {
	bun.BaseModel `bun:"table:estimation_items"`

	ID           int64           `bun:",pk,autoincrement" json:"id"`
	EstimationID int64           `bun:"estimation_id,notnull" json:"estimation_id"`
	PlantName    string          `bun:"plant_name,notnull" json:"plant_name"`
	Rate         decimal.Decimal `bun:"rate,type:numeric(12,2),notnull" json:"rate"`
	Quantity     int             `bun:"quantity,notnull" json:"quantity"`
	Total        decimal.Decimal `bun:"total,type:numeric(12,2),notnull" json:"total"`
}
