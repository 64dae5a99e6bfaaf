package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
)

// PlantRequest creates or updates a plant. Omitted fields are left unchanged on update.
type PlantRequest struct {
	Name          *string          `json:"name"`
	BotanicalName *string          `json:"botanicalName"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Stock         *int             `json:"stock"`
	Size          *string          `json:"size"`
	Light         *string          `json:"light"`
	Water         *string          `json:"water"`
	Category      *string          `json:"category"`
	ImageURL      *string          `json:"imageUrl"`
	Status        *string          `json:"status"`
}

// PlantResponse is a catalog entry.
type PlantResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	BotanicalName string          `json:"botanicalName,omitempty"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Size          string          `json:"size,omitempty"`
	Light         string          `json:"light,omitempty"`
	Water         string          `json:"water,omitempty"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewPlantResponse maps a plant entity.
func NewPlantResponse(p *entity.Plant) PlantResponse {
	return PlantResponse{
		ID:            p.ID,
		Name:          p.Name,
		BotanicalName: p.BotanicalName,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Size:          p.Size,
		Light:         p.Light,
		Water:         p.Water,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewPlantResponses maps a list of plants.
func NewPlantResponses(plants []*entity.Plant) []PlantResponse {
	out := make([]PlantResponse, 0, len(plants))
	for _, p := range plants {
		out = append(out, NewPlantResponse(p))
	}
	return out
}
