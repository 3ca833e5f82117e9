package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AreaResponse salida de un área.
type AreaResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// AreaListResponse lista paginada de áreas.
type AreaListResponse struct {
	Items []AreaResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// AreaInventoryResponse stock de un producto en un área.
type AreaInventoryResponse struct {
	AreaID      string           `json:"area_id"`
	ProductID   string           `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	MinQuantity *decimal.Decimal `json:"min_quantity,omitempty"`
	MaxQuantity *decimal.Decimal `json:"max_quantity,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AreaInventoryListResponse lista paginada del stock de un área.
type AreaInventoryListResponse struct {
	Items []AreaInventoryResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// AreaMovementRequest body para POST /api/areas/:id/consumptions y /restocks.
type AreaMovementRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason,omitempty"` // consumption | waste
	ReferenceID string          `json:"reference_id,omitempty"`
}
