package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
)

// CreateOrderRequest is the order placement payload. Totals are optional; when
// present they must agree with the server-side computation.
type CreateOrderRequest struct {
	OrderNo         string             `json:"orderNo"`
	CustomerName    string             `json:"customerName"`
	CustomerContact string             `json:"customerContact"`
	CustomerAddress string             `json:"customerAddress"`
	Items           []OrderItemRequest `json:"items"`
	SubTotal        decimal.Decimal    `json:"subTotal"`
	Discount        decimal.Decimal    `json:"discount"`
	Tax             decimal.Decimal    `json:"tax"`
	GrandTotal      decimal.Decimal    `json:"grandTotal"`
	PaidAmount      decimal.Decimal    `json:"paidAmount"`
	Status          string             `json:"status"`
}

// OrderItemRequest is one requested line.
type OrderItemRequest struct {
	PlantID  int64           `json:"plantId"`
	Rate     decimal.Decimal `json:"rate"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNo         string              `json:"orderNo"`
	CustomerName    string              `json:"customerName"`
	CustomerContact string              `json:"customerContact,omitempty"`
	CustomerAddress string              `json:"customerAddress,omitempty"`
	SubTotal        decimal.Decimal     `json:"subTotal"`
	Discount        decimal.Decimal     `json:"discount"`
	Tax             decimal.Decimal     `json:"tax"`
	GrandTotal      decimal.Decimal     `json:"grandTotal"`
	PaidAmount      decimal.Decimal     `json:"paidAmount"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
	InvoiceURL      string              `json:"invoiceUrl,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// OrderItemResponse is a persisted line snapshot. PlantID is null once the plant
// has been deleted.
type OrderItemResponse struct {
	ID        int64           `json:"id"`
	PlantID   *int64          `json:"plantId"`
	PlantName string          `json:"plantName"`
	Rate      decimal.Decimal `json:"rate"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// NewOrderResponse maps an order entity.
func NewOrderResponse(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        it.ID,
			PlantID:   it.PlantID,
			PlantName: it.PlantName,
			Rate:      it.Rate,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		CustomerName:    o.CustomerName,
		CustomerContact: o.CustomerContact,
		CustomerAddress: o.CustomerAddress,
		SubTotal:        o.SubTotal,
		Discount:        o.Discount,
		Tax:             o.Tax,
		GrandTotal:      o.GrandTotal,
		PaidAmount:      o.PaidAmount,
		Status:          string(o.Status),
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

// NewOrderResponses maps a list of orders.
func NewOrderResponses(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}
