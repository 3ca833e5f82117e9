package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

var _ repository.AreaInventoryRepository = (*AreaInventoryRepo)(nil)

// AreaInventoryRepo stock por área sobre PostgreSQL. Acepta pool o tx (Querier).
type AreaInventoryRepo struct {
	q Querier
}

// NewAreaInventoryRepository construye el adaptador.
func NewAreaInventoryRepository(q Querier) *AreaInventoryRepo {
	return &AreaInventoryRepo{q: q}
}

const areaInventoryColumns = `area_id, product_id, organization_id, quantity, min_quantity, max_quantity, updated_at`

func scanAreaInventory(row pgx.Row) (*entity.AreaInventoryEntry, error) {
	var e entity.AreaInventoryEntry
	if err := row.Scan(&e.AreaID, &e.ProductID, &e.OrganizationID, &e.Quantity, &e.MinQuantity, &e.MaxQuantity, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *AreaInventoryRepo) GetForUpdate(ctx context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error) {
	query := `
		SELECT ` + areaInventoryColumns + `
		FROM area_inventory WHERE area_id = $1 AND product_id = $2 AND organization_id = $3
		FOR UPDATE`
	return r.get(ctx, "get area inventory for update", query, areaID, productID, organizationID)
}

func (r *AreaInventoryRepo) Get(ctx context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error) {
	query := `
		SELECT ` + areaInventoryColumns + `
		FROM area_inventory WHERE area_id = $1 AND product_id = $2 AND organization_id = $3`
	return r.get(ctx, "get area inventory", query, areaID, productID, organizationID)
}

func (r *AreaInventoryRepo) get(ctx context.Context, op, query string, args ...any) (*entity.AreaInventoryEntry, error) {
	e, err := scanAreaInventory(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// Upsert persiste cantidad y umbrales. Los umbrales nil no pisan los existentes.
func (r *AreaInventoryRepo) Upsert(ctx context.Context, entry *entity.AreaInventoryEntry) error {
	query := `
		INSERT INTO area_inventory (` + areaInventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (area_id, product_id, organization_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
			min_quantity = COALESCE(EXCLUDED.min_quantity, area_inventory.min_quantity),
			max_quantity = COALESCE(EXCLUDED.max_quantity, area_inventory.max_quantity),
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		entry.AreaID, entry.ProductID, entry.OrganizationID, entry.Quantity,
		entry.MinQuantity, entry.MaxQuantity, entry.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("inventario de área negativo: %w", err)
		}
		return fmt.Errorf("upsert area inventory: %w", err)
	}
	return nil
}

func (r *AreaInventoryRepo) ListByArea(ctx context.Context, organizationID, areaID string, limit, offset int) ([]*entity.AreaInventoryEntry, error) {
	query := `
		SELECT ` + areaInventoryColumns + `
		FROM area_inventory
		WHERE organization_id = $1 AND area_id = $2
		ORDER BY product_id LIMIT $3 OFFSET $4`
	return r.list(ctx, "list area inventory", query, organizationID, areaID, limit, offset)
}

func (r *AreaInventoryRepo) ListBelowMinimum(ctx context.Context, organizationID, areaID string) ([]*entity.AreaInventoryEntry, error) {
	query := `
		SELECT ` + areaInventoryColumns + `
		FROM area_inventory
		WHERE organization_id = $1 AND area_id = $2
		  AND min_quantity IS NOT NULL AND quantity < min_quantity
		ORDER BY (min_quantity - quantity) DESC, product_id`
	return r.list(ctx, "list area inventory below minimum", query, organizationID, areaID)
}

func (r *AreaInventoryRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.AreaInventoryEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.AreaInventoryEntry
	for rows.Next() {
		e, err := scanAreaInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan area inventory: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
