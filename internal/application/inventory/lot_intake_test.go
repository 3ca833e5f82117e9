package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotIntake_IngresoActualizaLedgerCostoEHistorial(t *testing.T) {
	s := newStore(t)
	seedLot(s, "lot-a", productP, "10", "10", baseTime, day(10))
	uc := inventory.NewLotIntakeUseCase(s, nil)

	lot, err := uc.Receive(context.Background(), inventory.LotIntakeInput{
		OrganizationID: orgID,
		UserID:         userID,
		ProductID:      productP,
		Quantity:       dec("10"),
		UnitCost:       dec("14"),
		ExpiresAt:      day(20),
		ReferenceID:    "OC-77",
	})
	require.NoError(t, err)
	assert.True(t, lot.Active)
	assert.True(t, lot.QuantityRemaining.Equal(dec("10")))
	assert.Equal(t, "20", ledgerTotal(t, s, productP))

	product, err := s.Repos().Products.GetByID(context.Background(), productP)
	require.NoError(t, err)
	// (10*10 + 10*14) / 20
	assert.True(t, product.Cost.Equal(dec("12")), product.Cost.String())

	moves, err := s.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferencePurchase, "OC-77")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, entity.MovementTypeInbound, moves[0].Type)
	assert.True(t, moves[0].TotalCost.Equal(dec("140")))
}

func TestLotIntake_LoteFraccionarioRedondeaLedger(t *testing.T) {
	s := newStore(t)
	uc := inventory.NewLotIntakeUseCase(s, nil)

	_, err := uc.Receive(context.Background(), inventory.LotIntakeInput{
		OrganizationID: orgID, ProductID: productQ, Quantity: dec("1.25"), UnitCost: dec("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2", ledgerTotal(t, s, productQ))
}

func TestLotIntake_Validaciones(t *testing.T) {
	s := newStore(t)
	uc := inventory.NewLotIntakeUseCase(s, nil)
	ctx := context.Background()

	_, err := uc.Receive(ctx, inventory.LotIntakeInput{OrganizationID: orgID, ProductID: productP, Quantity: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Receive(ctx, inventory.LotIntakeInput{OrganizationID: orgID, ProductID: productP, Quantity: dec("1.5")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "producto entero no admite fracciones")

	_, err = uc.Receive(ctx, inventory.LotIntakeInput{
		OrganizationID: orgID, ProductID: productP, Quantity: dec("1"), AcquiredAt: *day(10), ExpiresAt: day(2),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Receive(ctx, inventory.LotIntakeInput{OrganizationID: orgID, ProductID: "x", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "0", ledgerTotal(t, s, productP))
}
