package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// AreaInventory crédito y débito del stock de un área dentro de la transacción en curso.
type AreaInventory struct {
	repo repository.AreaInventoryRepository
	now  func() time.Time
}

// NewAreaInventory construye el componente.
func NewAreaInventory(repo repository.AreaInventoryRepository, now func() time.Time) *AreaInventory {
	if now == nil {
		now = time.Now
	}
	return &AreaInventory{repo: repo, now: now}
}

// Credit suma amount al área; crea la fila si no existe.
func (a *AreaInventory) Credit(ctx context.Context, areaID, productID, organizationID string, amount decimal.Decimal) (*entity.AreaInventoryEntry, error) {
	if amount.IsNegative() {
		return nil, &domain.ValidationError{Field: "quantity", Message: "no puede ser negativa"}
	}
	entry, err := a.repo.GetForUpdate(ctx, areaID, productID, organizationID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &entity.AreaInventoryEntry{
			AreaID:         areaID,
			ProductID:      productID,
			OrganizationID: organizationID,
			Quantity:       decimal.Zero,
		}
	}
	entry.Quantity = domain.NormalizeQuantity(entry.Quantity.Add(amount))
	entry.UpdatedAt = a.now()
	if err := a.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit resta amount del área. Falla con InsufficientAreaStockError si quedaría negativo.
func (a *AreaInventory) Debit(ctx context.Context, areaID, productID, organizationID string, amount decimal.Decimal) (*entity.AreaInventoryEntry, error) {
	if amount.IsNegative() {
		return nil, &domain.ValidationError{Field: "quantity", Message: "no puede ser negativa"}
	}
	entry, err := a.repo.GetForUpdate(ctx, areaID, productID, organizationID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &entity.AreaInventoryEntry{
			AreaID:         areaID,
			ProductID:      productID,
			OrganizationID: organizationID,
			Quantity:       decimal.Zero,
		}
	}
	if entry.Quantity.LessThan(amount) {
		return nil, &domain.InsufficientAreaStockError{
			AreaID: areaID, ProductID: productID, Available: entry.Quantity, Requested: amount,
		}
	}
	entry.Quantity = domain.NormalizeQuantity(entry.Quantity.Sub(amount))
	entry.UpdatedAt = a.now()
	if err := a.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
