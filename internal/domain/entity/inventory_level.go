package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AreaInventoryEntry stock de un producto en un área (cocina, bar, almacén).
// Se crea al primer crédito; admite cantidades fraccionarias.
type AreaInventoryEntry struct {
	AreaID         string
	ProductID      string
	OrganizationID string
	Quantity       decimal.Decimal
	MinQuantity    *decimal.Decimal
	MaxQuantity    *decimal.Decimal
	UpdatedAt      time.Time
}

// BelowMinimum true si el área tiene umbral mínimo y la cantidad está por debajo.
func (e *AreaInventoryEntry) BelowMinimum() bool {
	return e.MinQuantity != nil && e.Quantity.LessThan(*e.MinQuantity)
}
