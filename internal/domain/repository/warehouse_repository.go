package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// AreaRepository lectura de áreas de la organización.
type AreaRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Area, error)
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]*entity.Area, error)
}
