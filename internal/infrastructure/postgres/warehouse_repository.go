package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

var _ repository.AreaRepository = (*AreaRepo)(nil)

// AreaRepo lectura de áreas (cocina, bar, almacén) sobre PostgreSQL.
type AreaRepo struct {
	q Querier
}

// NewAreaRepository construye el adaptador de persistencia para áreas.
func NewAreaRepository(q Querier) *AreaRepo {
	return &AreaRepo{q: q}
}

// GetByID obtiene un área por ID; nil si no existe.
func (r *AreaRepo) GetByID(ctx context.Context, id string) (*entity.Area, error) {
	query := `SELECT id, organization_id, name, kind FROM areas WHERE id = $1`
	var a entity.Area
	err := r.q.QueryRow(ctx, query, id).Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get area: %w", err)
	}
	return &a, nil
}

// ListByOrganization lista áreas de la organización por nombre.
func (r *AreaRepo) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*entity.Area, error) {
	query := `
		SELECT id, organization_id, name, kind
		FROM areas WHERE organization_id = $1
		ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Area
	for rows.Next() {
		var a entity.Area
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Kind); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// Create inserta un área. Solo lo usa la carga inicial (cmd/seed).
func (r *AreaRepo) Create(ctx context.Context, a *entity.Area) error {
	query := `
		INSERT INTO areas (id, organization_id, name, kind, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, a.ID, a.OrganizationID, a.Name, a.Kind); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("área %q duplicada: %w", a.Name, err)
		}
		return fmt.Errorf("insert area: %w", err)
	}
	return nil
}
