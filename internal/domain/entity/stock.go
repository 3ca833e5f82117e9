package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLedgerEntry cantidad agregada (entera) de un producto en el stock central de una organización.
// Se mantiene igual a ceil(suma de lotes activos) al final de cada transacción.
type StockLedgerEntry struct {
	ProductID      string
	OrganizationID string
	TotalQuantity  decimal.Decimal // siempre entero
	UpdatedAt      time.Time
}
