package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// OrganizationRepo alta de organizaciones para la carga inicial (cmd/seed).
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador.
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

// Ensure inserta la organización si no existe.
func (r *OrganizationRepo) Ensure(ctx context.Context, org *entity.Organization) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, org.ID, org.Name)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}
