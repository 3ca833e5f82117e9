package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

// QueryUseCase lecturas del stock central: lotes, ledger e historial.
type QueryUseCase struct {
	products  repository.ProductRepository
	lots      repository.LotRepository
	ledger    repository.StockLedgerRepository
	movements repository.MovementHistoryRepository
}

// NewQueryUseCase construye el caso de uso a partir de repos fuera de transacción.
func NewQueryUseCase(repos repository.TxRepos) *QueryUseCase {
	return &QueryUseCase{
		products:  repos.Products,
		lots:      repos.Lots,
		ledger:    repos.Ledger,
		movements: repos.Movements,
	}
}

func (uc *QueryUseCase) product(ctx context.Context, organizationID, productID string) (*entity.Product, error) {
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OrganizationID != organizationID {
		return nil, &domain.NotFoundError{Resource: "producto", ID: productID}
	}
	return p, nil
}

// Lots lotes de un producto; includeInactive agrega los agotados.
func (uc *QueryUseCase) Lots(ctx context.Context, organizationID, productID string, includeInactive bool) ([]*entity.Lot, error) {
	if _, err := uc.product(ctx, organizationID, productID); err != nil {
		return nil, err
	}
	return uc.lots.ListByProduct(ctx, productID, organizationID, includeInactive)
}

// Ledger entrada del ledger del producto (cero si nunca tuvo stock).
func (uc *QueryUseCase) Ledger(ctx context.Context, organizationID, productID string) (*entity.StockLedgerEntry, error) {
	if _, err := uc.product(ctx, organizationID, productID); err != nil {
		return nil, err
	}
	return uc.ledger.Get(ctx, productID, organizationID)
}

// MovementsByProduct historial de un producto en un rango de fechas.
func (uc *QueryUseCase) MovementsByProduct(ctx context.Context, organizationID, productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	if _, err := uc.product(ctx, organizationID, productID); err != nil {
		return nil, err
	}
	return uc.movements.ListByProduct(ctx, organizationID, productID, from, to, limit, offset)
}

// MovementsByReference historial de un documento (pedido, traslado).
func (uc *QueryUseCase) MovementsByReference(ctx context.Context, organizationID, referenceType, referenceID string) ([]*entity.MovementRecord, error) {
	if referenceType == "" || referenceID == "" {
		return nil, &domain.ValidationError{Field: "reference", Message: "reference_type y reference_id son requeridos"}
	}
	return uc.movements.ListByReference(ctx, organizationID, referenceType, referenceID)
}
