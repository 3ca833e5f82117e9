package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del historial.
const (
	MovementTypeOutbound = "outbound" // salida del stock central o de un área
	MovementTypeInbound  = "inbound"  // entrada a stock central o a un área
)

// Tipos de referencia del movimiento.
const (
	ReferenceOrder        = "order"
	ReferenceAreaTransfer = "area_transfer"
	ReferenceAdjustment   = "adjustment"
	ReferenceWaste        = "waste"
	ReferenceConsumption  = "consumption"
	ReferencePurchase     = "purchase"
)

// MovementRecord registro inmutable del historial de movimientos de stock.
type MovementRecord struct {
	ID             string
	OrganizationID string
	ProductID      string
	LotID          *string // lote afectado (salidas del stock central e ingresos de compra)
	AreaID         *string // área afectada (traslados, consumo, merma)
	Type           string
	Quantity       decimal.Decimal // siempre positiva; Type indica el sentido
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	CreatedBy      string
	CreatedAt      time.Time
}
