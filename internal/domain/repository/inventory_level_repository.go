package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// AreaInventoryRepository define el puerto para el stock por área+producto.
type AreaInventoryRepository interface {
	// GetForUpdate devuelve nil si el área aún no tiene fila para el producto.
	GetForUpdate(ctx context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error)
	Get(ctx context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error)
	Upsert(ctx context.Context, entry *entity.AreaInventoryEntry) error
	ListByArea(ctx context.Context, organizationID, areaID string, limit, offset int) ([]*entity.AreaInventoryEntry, error)

	// ListBelowMinimum devuelve las filas con umbral mínimo cuya cantidad está por debajo,
	// ordenadas por mayor déficit primero.
	ListBelowMinimum(ctx context.Context, organizationID, areaID string) ([]*entity.AreaInventoryEntry, error)
}
