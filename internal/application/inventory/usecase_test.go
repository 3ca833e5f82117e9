package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocate(t *testing.T, s *memory.Store, productID, qty string) (*inventory.AllocationResult, error) {
	t.Helper()
	uc := inventory.NewAllocationUseCase(s, nil)
	return uc.Allocate(context.Background(), inventory.AllocateInput{
		OrganizationID: orgID,
		UserID:         userID,
		ProductID:      productID,
		Quantity:       dec(qty),
		ReferenceType:  entity.ReferenceOrder,
		ReferenceID:    "pedido-1",
	})
}

func lotsByID(t *testing.T, s *memory.Store, productID string) map[string]*entity.Lot {
	t.Helper()
	lots, err := s.Repos().Lots.ListByProduct(context.Background(), productID, orgID, true)
	require.NoError(t, err)
	out := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		out[l.ID] = l
	}
	return out
}

func ledgerTotal(t *testing.T, s *memory.Store, productID string) string {
	t.Helper()
	e, err := s.Repos().Ledger.Get(context.Background(), productID, orgID)
	require.NoError(t, err)
	return e.TotalQuantity.String()
}

func TestAllocate_FIFOAgotaPrimeroElQueVenceAntes(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)
	require.Equal(t, "15", ledgerTotal(t, s, productP))

	res, err := allocate(t, s, productP, "7")
	require.NoError(t, err)

	require.Len(t, res.Depletions, 2)
	assert.Equal(t, "lot-a", res.Depletions[0].LotID)
	assert.True(t, res.Depletions[0].Amount.Equal(dec("5")))
	assert.Equal(t, "lot-b", res.Depletions[1].LotID)
	assert.True(t, res.Depletions[1].Amount.Equal(dec("2")))
	assert.True(t, res.Allocated.Equal(dec("7")))
	assert.Equal(t, "8", res.LedgerAfter.TotalQuantity.String())
	// 5*10 + 2*12
	assert.True(t, res.TotalCost().Equal(dec("74")))

	lots := lotsByID(t, s, productP)
	assert.True(t, lots["lot-a"].QuantityRemaining.IsZero())
	assert.False(t, lots["lot-a"].Active)
	assert.True(t, lots["lot-b"].QuantityRemaining.Equal(dec("8")))
	assert.True(t, lots["lot-b"].Active)
	assert.Equal(t, "8", ledgerTotal(t, s, productP))

	moves, err := s.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferenceOrder, "pedido-1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, entity.MovementTypeOutbound, m.Type)
		require.NotNil(t, m.LotID)
	}
}

func TestAllocate_PrimerLoteBastaNoTocaElSegundo(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)

	res, err := allocate(t, s, productP, "5")
	require.NoError(t, err)
	require.Len(t, res.Depletions, 1)
	assert.Equal(t, "lot-a", res.Depletions[0].LotID)

	lots := lotsByID(t, s, productP)
	assert.True(t, lots["lot-b"].QuantityRemaining.Equal(dec("10")))
}

func TestAllocate_StockInsuficienteNoModificaEstado(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)

	_, err := allocate(t, s, productP, "20")
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "15", insufficient.Available.String())
	assert.Equal(t, "20", insufficient.Requested.String())
	assert.True(t, domain.IsRetryable(err))

	lots := lotsByID(t, s, productP)
	assert.True(t, lots["lot-a"].QuantityRemaining.Equal(dec("5")))
	assert.True(t, lots["lot-b"].QuantityRemaining.Equal(dec("10")))
	assert.Equal(t, "15", ledgerTotal(t, s, productP))
}

func TestAllocate_LoteFraccionarioSeAgota(t *testing.T) {
	s := newStore(t)
	seedLot(s, "lot-q", productQ, "2.5", "2", baseTime, nil)
	require.Equal(t, "3", ledgerTotal(t, s, productQ))

	res, err := allocate(t, s, productQ, "2.5")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(dec("2.5")))

	lot := lotsByID(t, s, productQ)["lot-q"]
	assert.True(t, lot.QuantityRemaining.IsZero())
	assert.False(t, lot.Active)
	assert.Equal(t, "0", ledgerTotal(t, s, productQ))
}

func TestAllocate_FraccionarioParcialMantieneLedgerDerivado(t *testing.T) {
	s := newStore(t)
	seedLot(s, "lot-q1", productQ, "0.4", "2", baseTime, day(5))
	seedLot(s, "lot-q2", productQ, "1.6", "2", baseTime, day(9))

	_, err := allocate(t, s, productQ, "0.7")
	require.NoError(t, err)

	lots := lotsByID(t, s, productQ)
	assert.False(t, lots["lot-q1"].Active)
	assert.True(t, lots["lot-q2"].QuantityRemaining.Equal(dec("1.3")))
	// ceil(1.3)
	assert.Equal(t, "2", ledgerTotal(t, s, productQ))
}

func TestAllocate_EnteroRedondeaUnaSolaVez(t *testing.T) {
	s := newStore(t)
	seedLot(s, "lot-1", productP, "1", "10", baseTime, day(3))
	seedLot(s, "lot-2", productP, "1", "10", baseTime, day(4))
	seedLot(s, "lot-3", productP, "5", "10", baseTime, day(5))

	res, err := allocate(t, s, productP, "2.2")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(dec("3")))
	require.Len(t, res.Depletions, 3)
	assert.True(t, res.Depletions[2].Amount.Equal(dec("1")))
	assert.Equal(t, "4", ledgerTotal(t, s, productP))
}

func TestAllocate_FaltanteRevierteTodo(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)
	// ledger por encima de la suma de lotes
	s.SetLedger(productP, orgID, dec("20"))

	_, err := allocate(t, s, productP, "18")
	require.Error(t, err)
	var shortfall *domain.AllocationShortfallError
	require.True(t, errors.As(err, &shortfall))
	assert.True(t, shortfall.Allocated.Equal(dec("15")))
	assert.True(t, domain.IsRetryable(err))

	lots := lotsByID(t, s, productP)
	assert.True(t, lots["lot-a"].QuantityRemaining.Equal(dec("5")))
	assert.True(t, lots["lot-a"].Active)
	assert.True(t, lots["lot-b"].QuantityRemaining.Equal(dec("10")))
	assert.Equal(t, "20", ledgerTotal(t, s, productP))

	moves, err := s.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferenceOrder, "pedido-1")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestAllocate_LotesConsumidosPorOtraTransaccionEsStockInsuficiente(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)
	// el pre-chequeo vio 20; al obtener los bloqueos el ledger real es 15
	runner := wrappedRunner{store: s, wrap: func(repos *repository.TxRepos) {
		repos.Ledger = staleLedger{StockLedgerRepository: repos.Ledger, total: dec("20")}
	}}
	uc := inventory.NewAllocationUseCase(runner, nil)

	_, err := uc.Allocate(context.Background(), inventory.AllocateInput{
		OrganizationID: orgID, UserID: userID, ProductID: productP, Quantity: dec("18"),
		ReferenceType: entity.ReferenceOrder, ReferenceID: "pedido-2",
	})
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient), "%v", err)
	assert.NotErrorIs(t, err, domain.ErrAllocationShortfall)
	assert.True(t, insufficient.Available.Equal(dec("15")))
	assert.True(t, insufficient.Requested.Equal(dec("18")))
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, "15", ledgerTotal(t, s, productP))
}

func TestAllocate_LedgerCoincideConLotesTrasSecuencia(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)
	seedLot(s, "lot-c", productP, "3", "9", baseTime.Add(2*time.Hour), nil)

	for _, q := range []string{"1", "4", "2.5", "6"} {
		_, err := allocate(t, s, productP, q)
		require.NoError(t, err, q)

		sum, err := s.Repos().Lots.SumActive(context.Background(), productP, orgID)
		require.NoError(t, err)
		assert.Equal(t, domain.CeilQuantity(sum).String(), ledgerTotal(t, s, productP))
		for _, l := range lotsByID(t, s, productP) {
			assert.False(t, l.QuantityRemaining.IsNegative())
		}
	}
}

func TestAllocate_Validaciones(t *testing.T) {
	s := newStore(t)
	seedTwoLots(s)

	_, err := allocate(t, s, productP, "0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = allocate(t, s, "no-existe", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s.PutProduct(entity.Product{ID: "ajeno", OrganizationID: "otra-org"})
	_, err = allocate(t, s, "ajeno", "1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
