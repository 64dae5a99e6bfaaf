package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
)

// CreateEstimationRequest is a quotation payload.
type CreateEstimationRequest struct {
	EstimateNo      string                  `json:"estimateNo"`
	CustomerName    string                  `json:"customerName"`
	CustomerContact string                  `json:"customerContact"`
	CustomerAddress string                  `json:"customerAddress"`
	Items           []EstimationItemRequest `json:"items"`
	GrandTotal      decimal.Decimal         `json:"grandTotal"`
}

// EstimationItemRequest is one quoted line.
type EstimationItemRequest struct {
	PlantName string          `json:"plantName"`
	Rate      decimal.Decimal `json:"rate"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// EstimationResponse is a stored quotation.
type EstimationResponse struct {
	ID              int64                    `json:"id"`
	EstimateNo      string                   `json:"estimateNo"`
	CustomerName    string                   `json:"customerName"`
	CustomerContact string                   `json:"customerContact,omitempty"`
	CustomerAddress string                   `json:"customerAddress,omitempty"`
	TotalItems      int                      `json:"totalItems"`
	GrandTotal      decimal.Decimal          `json:"grandTotal"`
	Items           []EstimationItemResponse `json:"items"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// EstimationItemResponse is a stored quoted line.
type EstimationItemResponse struct {
	ID        int64           `json:"id"`
	PlantName string          `json:"plantName"`
	Rate      decimal.Decimal `json:"rate"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// NewEstimationResponse maps an estimation entity.
func NewEstimationResponse(e *entity.Estimation) EstimationResponse {
	items := make([]EstimationItemResponse, 0, len(e.Items))
	for _, it := range e.Items {
		items = append(items, EstimationItemResponse{
			ID:        it.ID,
			PlantName: it.PlantName,
			Rate:      it.Rate,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}
	return EstimationResponse{
		ID:              e.ID,
		EstimateNo:      e.EstimateNo,
		CustomerName:    e.CustomerName,
		CustomerContact: e.CustomerContact,
		CustomerAddress: e.CustomerAddress,
		TotalItems:      e.TotalItems,
		GrandTotal:      e.GrandTotal,
		Items:           items,
		CreatedAt:       e.CreatedAt,
	}
}

// NewEstimationResponses maps a list of estimations.
func NewEstimationResponses(ests []*entity.Estimation) []EstimationResponse {
	out := make([]EstimationResponse, 0, len(ests))
	for _, e := range ests {
		out = append(out, NewEstimationResponse(e))
	}
	return out
}
