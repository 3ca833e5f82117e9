package inventory

import "github.com/shopspring/decimal"

// CostScale decimales de los costos unitarios (NUMERIC(18,4)).
const CostScale = 4

// WeightedAverageCost costo promedio del producto tras ingresar un lote:
//
//	((stock * costo) + (entrada * costoEntrada)) / (stock + entrada)
//
// Sin stock previo el costo pasa a ser el del lote; sin entrada no cambia.
func WeightedAverageCost(stock, cost, incoming, incomingCost decimal.Decimal) decimal.Decimal {
	if !incoming.IsPositive() {
		return cost.Round(CostScale)
	}
	if !stock.IsPositive() {
		return incomingCost.Round(CostScale)
	}
	num := stock.Mul(cost).Add(incoming.Mul(incomingCost))
	return num.Div(stock.Add(incoming)).Round(CostScale)
}
