package repository

import (
	"context"
	"time"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// MovementHistoryRepository puerto del historial de movimientos. Solo inserción y lectura.
type MovementHistoryRepository interface {
	Create(ctx context.Context, record *entity.MovementRecord) error
	ListByProduct(ctx context.Context, organizationID, productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error)
	ListByReference(ctx context.Context, organizationID, referenceType, referenceID string) ([]*entity.MovementRecord, error)
}
