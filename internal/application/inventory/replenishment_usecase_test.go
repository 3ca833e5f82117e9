package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAreaUseCase(s *memory.Store) *inventory.AreaInventoryUseCase {
	return inventory.NewAreaInventoryUseCase(s, s.Areas(), s.Repos().Areas, nil)
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestAreaInventory_ConsumoDebitaYRegistra(t *testing.T) {
	s := newStore(t)
	s.PutAreaInventory(entity.AreaInventoryEntry{AreaID: areaCocina, ProductID: productQ, OrganizationID: orgID, Quantity: dec("3")})
	uc := newAreaUseCase(s)

	entry, err := uc.Consume(context.Background(), inventory.AreaMovementInput{
		OrganizationID: orgID, UserID: userID, AreaID: areaCocina, ProductID: productQ,
		Quantity: dec("1.25"), ReferenceType: entity.ReferenceWaste, ReferenceID: "merma-1",
	})
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(dec("1.75")))

	moves, err := s.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferenceWaste, "merma-1")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.NotNil(t, moves[0].AreaID)
	assert.Equal(t, areaCocina, *moves[0].AreaID)
	assert.Nil(t, moves[0].LotID)
}

func TestAreaInventory_ConsumoInsuficiente(t *testing.T) {
	s := newStore(t)
	uc := newAreaUseCase(s)

	_, err := uc.Consume(context.Background(), inventory.AreaMovementInput{
		OrganizationID: orgID, AreaID: areaBar, ProductID: productP,
		Quantity: dec("1"), ReferenceType: entity.ReferenceConsumption,
	})
	var insufficient *domain.InsufficientAreaStockError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Available.IsZero())

	_, err = uc.Consume(context.Background(), inventory.AreaMovementInput{
		OrganizationID: orgID, AreaID: areaBar, ProductID: productP,
		Quantity: dec("1"), ReferenceType: entity.ReferenceOrder,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Consume(context.Background(), inventory.AreaMovementInput{
		OrganizationID: "otra", AreaID: areaBar, ProductID: productP,
		Quantity: dec("1"), ReferenceType: entity.ReferenceConsumption,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAreaInventory_ReposicionCreaFila(t *testing.T) {
	s := newStore(t)
	uc := newAreaUseCase(s)

	entry, err := uc.Restock(context.Background(), inventory.AreaMovementInput{
		OrganizationID: orgID, AreaID: areaBar, ProductID: productP, Quantity: dec("4"),
	})
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(dec("4")))

	rows, err := uc.List(context.Background(), orgID, areaBar, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, productP, rows[0].ProductID)
}

func TestAreaInventory_ListaDeReposicion(t *testing.T) {
	s := newStore(t)
	s.PutAreaInventory(entity.AreaInventoryEntry{
		AreaID: areaBar, ProductID: productP, OrganizationID: orgID,
		Quantity: dec("1"), MinQuantity: ptr(dec("4")), MaxQuantity: ptr(dec("12")),
	})
	s.PutAreaInventory(entity.AreaInventoryEntry{
		AreaID: areaBar, ProductID: productQ, OrganizationID: orgID,
		Quantity: dec("1"), MinQuantity: ptr(dec("2")),
	})
	s.PutAreaInventory(entity.AreaInventoryEntry{
		AreaID: areaBar, ProductID: "prod-ok", OrganizationID: orgID,
		Quantity: dec("9"), MinQuantity: ptr(dec("2")),
	})
	uc := newAreaUseCase(s)

	list, err := uc.ReplenishmentList(context.Background(), orgID, areaBar)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, productP, list[0].ProductID)
	assert.Equal(t, 1, list[0].Priority)
	assert.True(t, list[0].SuggestedQty.Equal(dec("11")))

	assert.Equal(t, productQ, list[1].ProductID)
	assert.True(t, list[1].SuggestedQty.Equal(dec("3")), "sin máximo se sugiere 2*min - actual")
}
