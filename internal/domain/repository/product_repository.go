package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository lectura del catálogo (propiedad de otro contexto) más el costo promedio.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
}
