package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/inventory"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// LotStore operaciones sobre lotes del stock central, atadas al repositorio de la transacción en curso.
type LotStore struct {
	repo repository.LotRepository
	now  func() time.Time
}

// NewLotStore construye el store. now nil usa time.Now.
func NewLotStore(repo repository.LotRepository, now func() time.Time) *LotStore {
	if now == nil {
		now = time.Now
	}
	return &LotStore{repo: repo, now: now}
}

// SelectForDepletion relee los lotes activos del producto (bloqueados) en orden FIFO.
// No hay caché: cada llamada refleja el estado actual.
func (s *LotStore) SelectForDepletion(ctx context.Context, productID, organizationID string) ([]*entity.Lot, error) {
	lots, err := s.repo.ListForDepletion(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	active := lots[:0]
	for _, l := range lots {
		if l.Active && l.QuantityRemaining.IsPositive() {
			active = append(active, l)
		}
	}
	inventory.SortFIFO(active)
	return active, nil
}

// Deplete descuenta amount del lote lotID y lo persiste. Desactiva el lote al llegar a cero.
func (s *LotStore) Deplete(ctx context.Context, lotID string, amount decimal.Decimal) (*entity.Lot, error) {
	lot, err := s.repo.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, &domain.NotFoundError{Resource: "lote", ID: lotID}
	}
	if err := lot.Deplete(amount, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}
