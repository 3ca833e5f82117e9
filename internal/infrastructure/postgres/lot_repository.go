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

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes del stock central sobre PostgreSQL (pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, product_id, organization_id, initial_quantity, quantity_remaining, unit_cost,
	acquired_at, expires_at, active, created_at, updated_at`

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.OrganizationID, &l.InitialQuantity, &l.QuantityRemaining,
		&l.UnitCost, &l.AcquiredAt, &l.ExpiresAt, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.ProductID, lot.OrganizationID, lot.InitialQuantity, lot.QuantityRemaining, lot.UnitCost,
		lot.AcquiredAt, lot.ExpiresAt, lot.Active, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s ya existe: %w", lot.ID, err)
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetForUpdate devuelve nil si no existe.
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1 FOR UPDATE`
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot for update: %w", err)
	}
	return l, nil
}

// ListForDepletion bloquea los lotes activos en el mismo orden FIFO en que se consumen.
func (r *LotRepo) ListForDepletion(ctx context.Context, productID, organizationID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND organization_id = $2 AND active AND quantity_remaining > 0
		ORDER BY expires_at ASC NULLS LAST, acquired_at ASC, id ASC
		FOR UPDATE`
	return r.list(ctx, "list lots for depletion", query, productID, organizationID)
}

func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	query := `UPDATE lots SET quantity_remaining = $2, active = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lot.ID, lot.QuantityRemaining, lot.Active, lot.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("lote %s quedaría negativo: %w", lot.ID, err)
		}
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot %s: %w", lot.ID, pgx.ErrNoRows)
	}
	return nil
}

func (r *LotRepo) SumActive(ctx context.Context, productID, organizationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_remaining), 0)
		FROM lots WHERE product_id = $1 AND organization_id = $2 AND active`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, organizationID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum active lots: %w", err)
	}
	return sum, nil
}

func (r *LotRepo) ListByProduct(ctx context.Context, productID, organizationID string, includeInactive bool) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND organization_id = $2 AND ($3 OR active)
		ORDER BY acquired_at ASC, id ASC`
	return r.list(ctx, "list lots by product", query, productID, organizationID, includeInactive)
}

func (r *LotRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
