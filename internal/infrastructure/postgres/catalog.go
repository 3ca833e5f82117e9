package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// Catalog agrupa las altas de organización, producto y área que usa la carga inicial.
type Catalog struct {
	orgs     *OrganizationRepo
	products *ProductRepo
	areas    *AreaRepo
}

// NewCatalog construye el adaptador sobre el pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{
		orgs:     NewOrganizationRepository(pool),
		products: NewProductRepository(pool),
		areas:    NewAreaRepository(pool),
	}
}

func (c *Catalog) EnsureOrganization(ctx context.Context, org *entity.Organization) error {
	return c.orgs.Ensure(ctx, org)
}

func (c *Catalog) CreateProduct(ctx context.Context, p *entity.Product) error {
	return c.products.Create(ctx, p)
}

func (c *Catalog) CreateArea(ctx context.Context, a *entity.Area) error {
	return c.areas.Create(ctx, a)
}
