package inventory

import (
	"testing"
	"time"

	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lot(id, qty string, acquired time.Time, expires *time.Time) *entity.Lot {
	q := decimal.RequireFromString(qty)
	return &entity.Lot{ID: id, QuantityRemaining: q, InitialQuantity: q, AcquiredAt: acquired, ExpiresAt: expires, Active: true}
}

func TestSortFIFO_VencimientoLuegoIngreso(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan10 := t0.AddDate(0, 0, 9)
	feb1 := t0.AddDate(0, 1, 0)

	lots := []*entity.Lot{
		lot("sin-vencimiento-viejo", "1", t0.Add(-48*time.Hour), nil),
		lot("feb", "1", t0, &feb1),
		lot("ene-nuevo", "1", t0.Add(time.Hour), &jan10),
		lot("ene-viejo", "1", t0, &jan10),
	}
	SortFIFO(lots)

	ids := make([]string, len(lots))
	for i, l := range lots {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"ene-viejo", "ene-nuevo", "feb", "sin-vencimiento-viejo"}, ids)
}

func TestPlanDepletion(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		lots        []*entity.Lot
		requested   string
		fractional  bool
		wantAmounts []string
		wantCovered bool
	}{
		{
			name:        "cubre con el primer lote",
			lots:        []*entity.Lot{lot("a", "5", t0, nil), lot("b", "10", t0, nil)},
			requested:   "3",
			wantAmounts: []string{"3"},
			wantCovered: true,
		},
		{
			name:        "atraviesa lotes",
			lots:        []*entity.Lot{lot("a", "5", t0, nil), lot("b", "10", t0, nil)},
			requested:   "7",
			wantAmounts: []string{"5", "2"},
			wantCovered: true,
		},
		{
			name:        "entero redondea una sola vez",
			lots:        []*entity.Lot{lot("a", "0.5", t0, nil), lot("b", "10", t0, nil)},
			requested:   "1.2",
			wantAmounts: []string{"0.5", "1.5"},
			wantCovered: true,
		},
		{
			name:        "fraccionario exacto",
			lots:        []*entity.Lot{lot("a", "0.4", t0, nil), lot("b", "1.6", t0, nil)},
			requested:   "0.75",
			fractional:  true,
			wantAmounts: []string{"0.4", "0.35"},
			wantCovered: true,
		},
		{
			name:        "faltante",
			lots:        []*entity.Lot{lot("a", "2", t0, nil)},
			requested:   "3",
			wantAmounts: []string{"2"},
			wantCovered: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanDepletion(tt.lots, decimal.RequireFromString(tt.requested), tt.fractional)
			require.Len(t, plan.Depletions, len(tt.wantAmounts))
			for i, want := range tt.wantAmounts {
				assert.True(t, plan.Depletions[i].Amount.Equal(decimal.RequireFromString(want)),
					"depleción %d: %s", i, plan.Depletions[i].Amount)
			}
			assert.Equal(t, tt.wantCovered, plan.Covered())
		})
	}
}

func TestPlanDepletion_IgnoraLotesInactivos(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inactive := lot("x", "5", t0, nil)
	inactive.Active = false

	plan := PlanDepletion([]*entity.Lot{inactive, lot("y", "5", t0, nil)}, decimal.NewFromInt(2), false)
	require.Len(t, plan.Depletions, 1)
	assert.Equal(t, "y", plan.Depletions[0].Lot.ID)
}

func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name                            string
		stock, cost, incoming, unitCost string
		want                            string
	}{
		{"promedio", "10", "10", "30", "14", "13"},
		{"sin stock previo", "0", "99", "5", "7.5", "7.5"},
		{"stock negativo no aporta", "-2", "50", "4", "3", "3"},
		{"sin entrada", "10", "8.12345", "0", "1", "8.1235"},
		{"redondeo a cuatro decimales", "1", "1", "2", "2", "1.6667"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedAverageCost(
				decimal.RequireFromString(tc.stock), decimal.RequireFromString(tc.cost),
				decimal.RequireFromString(tc.incoming), decimal.RequireFromString(tc.unitCost),
			)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}
