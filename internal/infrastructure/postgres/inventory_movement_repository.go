package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

var _ repository.MovementHistoryRepository = (*MovementHistoryRepo)(nil)

// MovementHistoryRepo historial append-only sobre PostgreSQL (usable con pool o tx).
type MovementHistoryRepo struct {
	q Querier
}

// NewMovementHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementHistoryRepository(q Querier) *MovementHistoryRepo {
	return &MovementHistoryRepo{q: q}
}

const movementColumns = `id, organization_id, product_id, lot_id, area_id, type, quantity, unit_cost, total_cost,
	reference_type, reference_id, created_by, created_at`

// Create persiste un movimiento.
func (r *MovementHistoryRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OrganizationID, m.ProductID, m.LotID, m.AreaID, m.Type,
		m.Quantity, m.UnitCost, m.TotalCost, m.ReferenceType, m.ReferenceID,
		nullable(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas, más recientes primero.
func (r *MovementHistoryRepo) ListByProduct(ctx context.Context, organizationID, productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE organization_id = $1 AND product_id = $2`
	args := []any{organizationID, productID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.list(ctx, "list movements by product", query, args...)
}

// ListByReference movimientos de un documento en el orden en que se registraron.
func (r *MovementHistoryRepo) ListByReference(ctx context.Context, organizationID, referenceType, referenceID string) ([]*entity.MovementRecord, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE organization_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY seq`
	return r.list(ctx, "list movements by reference", query, organizationID, referenceType, referenceID)
}

func (r *MovementHistoryRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.MovementRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.MovementRecord
	for rows.Next() {
		var m entity.MovementRecord
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.ProductID, &m.LotID, &m.AreaID, &m.Type,
			&m.Quantity, &m.UnitCost, &m.TotalCost, &m.ReferenceType, &m.ReferenceID,
			&createdBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.CreatedBy = deref(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
