package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocateRequest body para POST /api/inventory/allocations.
type AllocateRequest struct {
	ProductID     string          `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type"` // order, adjustment, waste
	ReferenceID   string          `json:"reference_id"`
}

// LotDepletionDTO cantidad tomada de un lote.
type LotDepletionDTO struct {
	LotID    string          `json:"lot_id"`
	Amount   decimal.Decimal `json:"amount"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// AllocationResponse resultado de una asignación.
type AllocationResponse struct {
	ProductID   string            `json:"product_id"`
	Requested   decimal.Decimal   `json:"requested"`
	Allocated   decimal.Decimal   `json:"allocated"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	Depletions  []LotDepletionDTO `json:"depletions"`
	LedgerAfter decimal.Decimal   `json:"ledger_after"`
}

// LotIntakeRequest body para POST /api/inventory/lots.
type LotIntakeRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	AcquiredAt  *time.Time      `json:"acquired_at,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"` // orden de compra
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	InitialQuantity   decimal.Decimal `json:"initial_quantity"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	AcquiredAt        time.Time       `json:"acquired_at"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	Active            bool            `json:"active"`
}

// LedgerResponse total agregado del stock central.
type LedgerResponse struct {
	ProductID     string          `json:"product_id"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MovementResponse registro del historial.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	LotID         *string         `json:"lot_id,omitempty"`
	AreaID        *string         `json:"area_id,omitempty"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReplenishmentSuggestionDTO producto de un área por debajo de su mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductID    string           `json:"product_id"`
	Current      decimal.Decimal  `json:"current"`
	MinQuantity  decimal.Decimal  `json:"min_quantity"`
	MaxQuantity  *decimal.Decimal `json:"max_quantity,omitempty"`
	SuggestedQty decimal.Decimal  `json:"suggested_qty"` // max - actual, o 2*min - actual
	Priority     int              `json:"priority"`      // 1 = más urgente
}
