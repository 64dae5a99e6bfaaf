package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus enumerates the payment state of an order.
type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus resolves a status case-insensitively. Empty input yields Pending.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return OrderStatusPending, true
	case "paid":
		return OrderStatusPaid, true
	case "pending":
		return OrderStatusPending, true
	case "cancelled", "canceled":
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// Order represents a sales order together with its line snapshots.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	OrderNo         string          `bun:"order_no,notnull,unique" json:"order_no"`
	CustomerName    string          `bun:"customer_name,notnull" json:"customer_name"`
	CustomerContact string          `bun:"customer_contact" json:"customer_contact,omitempty"`
	CustomerAddress string          `bun:"customer_address" json:"customer_address,omitempty"`
	SubTotal        decimal.Decimal `bun:"sub_total,type:numeric(12,2),notnull" json:"sub_total"`
	Discount        decimal.Decimal `bun:"discount,type:numeric(12,2),notnull" json:"discount"`
	Tax             decimal.Decimal `bun:"tax,type:numeric(12,2),notnull" json:"tax"`
	GrandTotal      decimal.Decimal `bun:"grand_total,type:numeric(12,2),notnull" json:"grand_total"`
	PaidAmount      decimal.Decimal `bun:"paid_amount,type:numeric(12,2),notnull" json:"paid_amount"`
	Status          OrderStatus     `bun:"status,notnull" json:"status"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updated_at"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`
}

// Balance is the amount still owed on the order.
func (o *Order) Balance() decimal.Decimal {
	return o.GrandTotal.Sub(o.PaidAmount)
}

// OrderItem is an immutable snapshot of a plant line at order time. PlantID is a
// lookup reference only and becomes nil once the plant is deleted.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64           `bun:",pk,autoincrement" json:"id"`
	OrderID   int64           `bun:"order_id,notnull" json:"order_id"`
	PlantID   *int64          `bun:"plant_id,nullzero" json:"plant_id"`
	PlantName string          `bun:"plant_name,notnull" json:"plant_name"`
	Rate      decimal.Decimal `bun:"rate,type:numeric(12,2),notnull" json:"rate"`
	Quantity  int             `bun:"quantity,notnull" json:"quantity"`
	Total     decimal.Decimal `bun:"total,type:numeric(12,2),notnull" json:"total"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
