package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// StockLedgerRepository define el puerto para el ledger agregado por producto+organización.
// Usado dentro de transacciones para garantizar consistencia con los lotes.
type StockLedgerRepository interface {
	// Get devuelve la entrada o una en cero si no existe.
	Get(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error)
	// GetForUpdate igual que Get pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error)
	Upsert(ctx context.Context, entry *entity.StockLedgerEntry) error
}
