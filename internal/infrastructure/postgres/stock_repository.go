package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

// StockLedgerRepo ledger agregado por producto+organización sobre PostgreSQL (pool o tx).
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockLedgerRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

// Get obtiene el total del producto; en cero si aún no hay fila.
func (r *StockLedgerRepo) Get(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	query := `
		SELECT product_id, organization_id, total_quantity, updated_at
		FROM stock_ledger WHERE product_id = $1 AND organization_id = $2`
	return r.get(ctx, "get stock ledger", query, productID, organizationID)
}

// GetForUpdate obtiene el total y bloquea la fila (SELECT FOR UPDATE).
func (r *StockLedgerRepo) GetForUpdate(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	query := `
		SELECT product_id, organization_id, total_quantity, updated_at
		FROM stock_ledger WHERE product_id = $1 AND organization_id = $2
		FOR UPDATE`
	return r.get(ctx, "get stock ledger for update", query, productID, organizationID)
}

func (r *StockLedgerRepo) get(ctx context.Context, op, query, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	var e entity.StockLedgerEntry
	err := r.q.QueryRow(ctx, query, productID, organizationID).Scan(
		&e.ProductID, &e.OrganizationID, &e.TotalQuantity, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLedgerEntry{ProductID: productID, OrganizationID: organizationID, TotalQuantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

// Upsert inserta o actualiza el total del producto.
func (r *StockLedgerRepo) Upsert(ctx context.Context, entry *entity.StockLedgerEntry) error {
	query := `
		INSERT INTO stock_ledger (product_id, organization_id, total_quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, organization_id)
		DO UPDATE SET total_quantity = EXCLUDED.total_quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, entry.ProductID, entry.OrganizationID, entry.TotalQuantity, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock ledger: %w", err)
	}
	return nil
}
