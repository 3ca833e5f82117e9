package memory

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// Catalog alta de catálogo sobre el Store para la carga inicial. Las altas no pisan
// registros existentes, igual que el ON CONFLICT DO NOTHING de postgres.
type Catalog struct {
	store *Store
}

// Catalog adaptador de carga inicial.
func (s *Store) Catalog() *Catalog {
	return &Catalog{store: s}
}

// EnsureOrganization no guarda nada: el store no valida organizaciones.
func (c *Catalog) EnsureOrganization(context.Context, *entity.Organization) error {
	return nil
}

func (c *Catalog) CreateProduct(_ context.Context, p *entity.Product) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, ok := c.store.st.products[p.ID]; !ok {
		c.store.st.products[p.ID] = *p
	}
	return nil
}

func (c *Catalog) CreateArea(_ context.Context, a *entity.Area) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, ok := c.store.st.areas[a.ID]; !ok {
		c.store.st.areas[a.ID] = *a
	}
	return nil
}
