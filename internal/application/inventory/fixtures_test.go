package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
)

const (
	orgID      = "org-1"
	userID     = "user-1"
	productP   = "prod-p"
	productQ   = "prod-q"
	areaBar    = "area-bar"
	areaCocina = "area-cocina"
)

var baseTime = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// newStore producto entero P, fraccionario Q y dos áreas.
func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	s.PutProduct(entity.Product{ID: productP, OrganizationID: orgID, Name: "Ron añejo", UnitMeasure: "botella", Cost: dec("10")})
	s.PutProduct(entity.Product{ID: productQ, OrganizationID: orgID, Name: "Harina", UnitMeasure: "kg", IsFractional: true, Cost: dec("2")})
	s.PutArea(entity.Area{ID: areaBar, OrganizationID: orgID, Name: "Bar", Kind: "bar"})
	s.PutArea(entity.Area{ID: areaCocina, OrganizationID: orgID, Name: "Cocina", Kind: "kitchen"})
	return s
}

func seedLot(s *memory.Store, id, productID, qty, cost string, acquired time.Time, expires *time.Time) {
	s.SeedLot(entity.Lot{
		ID:                id,
		ProductID:         productID,
		OrganizationID:    orgID,
		InitialQuantity:   dec(qty),
		QuantityRemaining: dec(qty),
		UnitCost:          dec(cost),
		AcquiredAt:        acquired,
		ExpiresAt:         expires,
		Active:            true,
		CreatedAt:         acquired,
		UpdatedAt:         acquired,
	})
}

// seedTwoLots lote A (vence 10/01, 5 u) y lote B (vence 01/02, 10 u) del producto P.
func seedTwoLots(s *memory.Store) {
	seedLot(s, "lot-a", productP, "5", "10", baseTime, day(10))
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	seedLot(s, "lot-b", productP, "10", "12", baseTime.Add(time.Hour), &feb)
}

// wrappedRunner ejecuta sobre el store reemplazando repos de la transacción.
type wrappedRunner struct {
	store *memory.Store
	wrap  func(repos *repository.TxRepos)
}

func (r wrappedRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	return r.store.Run(ctx, func(repos repository.TxRepos) error {
		r.wrap(&repos)
		return fn(repos)
	})
}

// staleLedger lectura sin bloqueo desactualizada, como la que ve una transacción
// antes de que otra confirme su descuento.
type staleLedger struct {
	repository.StockLedgerRepository
	total decimal.Decimal
}

func (l staleLedger) Get(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	e, err := l.StockLedgerRepository.Get(ctx, productID, organizationID)
	if err != nil {
		return nil, err
	}
	e.TotalQuantity = l.total
	return e, nil
}
