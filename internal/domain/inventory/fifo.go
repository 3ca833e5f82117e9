package inventory

import (
	"sort"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Depletion cantidad a descontar de un lote concreto.
type Depletion struct {
	Lot    *entity.Lot
	Amount decimal.Decimal
}

// DepletionPlan resultado de recorrer los lotes en orden FIFO.
// Unallocated > 0 significa que los lotes no alcanzaron.
type DepletionPlan struct {
	Target      decimal.Decimal // cantidad efectivamente buscada (ceil para productos enteros)
	Depletions  []Depletion
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
}

// Covered true si los lotes cubren el objetivo dentro de domain.QuantityEpsilon.
func (p DepletionPlan) Covered() bool {
	return domain.IsNegligible(p.Unallocated)
}

// SortFIFO ordena lotes por vencimiento (sin vencimiento al final) y luego por fecha de ingreso.
func SortFIFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool { return lots[i].DepletesBefore(lots[j]) })
}

// PlanDepletion calcula cuánto tomar de cada lote sin mutar nada.
// lots debe venir en orden FIFO. Para productos no fraccionarios la cantidad pedida se
// redondea hacia arriba una sola vez (no por lote) y de cada lote se toma
// min(remanente del lote, pendiente).
func PlanDepletion(lots []*entity.Lot, requested decimal.Decimal, fractional bool) DepletionPlan {
	target := domain.NormalizeQuantity(requested)
	if !fractional {
		target = domain.CeilQuantity(target)
	}
	plan := DepletionPlan{Target: target, Allocated: decimal.Zero}
	pending := target
	for _, lot := range lots {
		if !pending.IsPositive() || domain.IsNegligible(pending) {
			break
		}
		if !lot.Active || !lot.QuantityRemaining.IsPositive() {
			continue
		}
		take := decimal.Min(lot.QuantityRemaining, pending)
		plan.Depletions = append(plan.Depletions, Depletion{Lot: lot, Amount: take})
		plan.Allocated = plan.Allocated.Add(take)
		pending = pending.Sub(take)
	}
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	plan.Unallocated = pending
	return plan
}

// LedgerQuantity valor que debe tener el ledger para un conjunto de lotes: ceil(suma de activos).
func LedgerQuantity(lots []*entity.Lot) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lots {
		if l.Active {
			sum = sum.Add(l.QuantityRemaining)
		}
	}
	return domain.CeilQuantity(sum)
}
