package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
)

// Event types published on the orders topic.
const (
	EventOrderCreated = "order.created"
	EventOrderDeleted = "order.deleted"
)

// Event is emitted after an order transaction commits.
type Event struct {
	Type       string             `json:"type"`
	OrderID    int64              `json:"order_id"`
	OrderNo    string             `json:"order_no"`
	Status     entity.OrderStatus `json:"status"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
	Items      []EventItem        `json:"items"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventItem records the stock movement of one order line.
type EventItem struct {
	PlantID  *int64 `json:"plant_id,omitempty"`
	Quantity int    `json:"quantity"`
}

func newEvent(kind string, order *entity.Order, at time.Time) Event {
	items := make([]EventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, EventItem{PlantID: it.PlantID, Quantity: it.Quantity})
	}
	return Event{
		Type:       kind,
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		Status:     order.Status,
		GrandTotal: order.GrandTotal,
		Items:      items,
		OccurredAt: at,
	}
}
