package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository define el puerto de persistencia para lotes del stock central.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	// GetForUpdate obtiene un lote bloqueando su fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// ListForDepletion devuelve los lotes activos en orden FIFO, bloqueando las filas en ese orden.
	ListForDepletion(ctx context.Context, productID, organizationID string) ([]*entity.Lot, error)
	// Update persiste cantidad remanente y estado activo.
	Update(ctx context.Context, lot *entity.Lot) error
	SumActive(ctx context.Context, productID, organizationID string) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, productID, organizationID string, includeInactive bool) ([]*entity.Lot, error)
}
