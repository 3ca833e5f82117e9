package entity

import (
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Lot lote de un producto en el stock central (compra con fecha de ingreso y vencimiento).
// Nunca se elimina; al agotarse queda inactivo para auditoría.
type Lot struct {
	ID                string
	ProductID         string
	OrganizationID    string
	InitialQuantity   decimal.Decimal
	QuantityRemaining decimal.Decimal
	UnitCost          decimal.Decimal
	AcquiredAt        time.Time
	ExpiresAt         *time.Time // nil = sin vencimiento
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Deplete descuenta amount del lote. Falla si amount es negativo o supera lo disponible.
// Al llegar a cero (menos de domain.QuantityEpsilon) el lote queda inactivo.
func (l *Lot) Deplete(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() || amount.GreaterThan(l.QuantityRemaining) {
		return &domain.InvalidAmountError{LotID: l.ID, Available: l.QuantityRemaining, Requested: amount}
	}
	l.QuantityRemaining = l.QuantityRemaining.Sub(amount)
	if domain.IsNegligible(l.QuantityRemaining) {
		l.QuantityRemaining = decimal.Zero
		l.Active = false
	}
	l.UpdatedAt = now
	return nil
}

// TotalValue valor del remanente al costo del lote.
func (l *Lot) TotalValue() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.UnitCost)
}

// DepletesBefore orden FIFO: vencimiento ascendente (sin vencimiento al final),
// luego fecha de ingreso ascendente. El ID desempata para que el orden sea total.
func (l *Lot) DepletesBefore(other *Lot) bool {
	switch {
	case l.ExpiresAt != nil && other.ExpiresAt == nil:
		return true
	case l.ExpiresAt == nil && other.ExpiresAt != nil:
		return false
	case l.ExpiresAt != nil && other.ExpiresAt != nil && !l.ExpiresAt.Equal(*other.ExpiresAt):
		return l.ExpiresAt.Before(*other.ExpiresAt)
	}
	if !l.AcquiredAt.Equal(other.AcquiredAt) {
		return l.AcquiredAt.Before(other.AcquiredAt)
	}
	return l.ID < other.ID
}
