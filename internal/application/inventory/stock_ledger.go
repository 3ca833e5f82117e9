package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockLedger cantidad agregada entera por producto en el stock central.
// El ledger es un valor derivado: tras cada cambio de lotes se recalcula como ceil(suma de activos).
type StockLedger struct {
	repo repository.StockLedgerRepository
	lots repository.LotRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewStockLedger construye el ledger sobre los repos de la transacción.
func NewStockLedger(repo repository.StockLedgerRepository, lots repository.LotRepository, log *logger.Logger, now func() time.Time) *StockLedger {
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &StockLedger{repo: repo, lots: lots, log: log, now: now}
}

// CheckSufficient true si total >= ceil(required). No modifica nada ni bloquea la fila.
func (l *StockLedger) CheckSufficient(ctx context.Context, productID, organizationID string, required decimal.Decimal) (bool, *entity.StockLedgerEntry, error) {
	entry, err := l.repo.Get(ctx, productID, organizationID)
	if err != nil {
		return false, nil, err
	}
	return entry.TotalQuantity.GreaterThanOrEqual(domain.CeilQuantity(required)), entry, nil
}

// Locked relee la entrada bloqueando su fila.
func (l *StockLedger) Locked(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	return l.repo.GetForUpdate(ctx, productID, organizationID)
}

// Decrement resta ceil(amount) del total. Falla con InsufficientStockError si quedaría negativo.
func (l *StockLedger) Decrement(ctx context.Context, productID, organizationID string, amount decimal.Decimal) (*entity.StockLedgerEntry, error) {
	entry, err := l.repo.GetForUpdate(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	dec := domain.CeilQuantity(amount)
	if entry.TotalQuantity.LessThan(dec) {
		return nil, &domain.InsufficientStockError{ProductID: productID, Available: entry.TotalQuantity, Requested: amount}
	}
	entry.TotalQuantity = entry.TotalQuantity.Sub(dec)
	entry.UpdatedAt = l.now()
	if err := l.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Increment suma ceil(amount) al total (ingreso de lotes).
func (l *StockLedger) Increment(ctx context.Context, productID, organizationID string, amount decimal.Decimal) (*entity.StockLedgerEntry, error) {
	entry, err := l.repo.GetForUpdate(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	entry.TotalQuantity = entry.TotalQuantity.Add(domain.CeilQuantity(amount))
	entry.UpdatedAt = l.now()
	if err := l.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Resync recalcula el total como ceil(suma de lotes activos) dentro de la misma transacción.
// Para productos enteros cualquier diferencia es divergencia real y se registra como warning;
// para fraccionarios la diferencia de redondeo es esperada.
func (l *StockLedger) Resync(ctx context.Context, productID, organizationID string, fractional bool) (*entity.StockLedgerEntry, error) {
	sum, err := l.lots.SumActive(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	derived := domain.CeilQuantity(sum)
	entry, err := l.repo.GetForUpdate(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	if !entry.TotalQuantity.Equal(derived) {
		log := l.log.WithContext(ctx)
		ev := log.Debug()
		if !fractional {
			ev = log.Warn()
		}
		ev.Str("product_id", productID).
			Str("organization_id", organizationID).
			Str("ledger", entry.TotalQuantity.String()).
			Str("lots", derived.String()).
			Msg("ledger resincronizado con la suma de lotes")
	}
	entry.TotalQuantity = derived
	entry.UpdatedAt = l.now()
	if err := l.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
