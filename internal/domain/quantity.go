package domain

import "github.com/shopspring/decimal"

// QuantityScale número de decimales con que se representan cantidades fraccionarias.
const QuantityScale int32 = 3

// QuantityEpsilon unidad fraccionaria más pequeña representable (0.001).
var QuantityEpsilon = decimal.New(1, -QuantityScale)

// NormalizeQuantity redondea una cantidad a QuantityScale decimales.
func NormalizeQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// CeilQuantity redondea hacia arriba al entero (semántica del ledger).
func CeilQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Ceil()
}

// IsNegligible true si |q| es menor que la unidad mínima representable.
func IsNegligible(q decimal.Decimal) bool {
	return q.Abs().LessThan(QuantityEpsilon)
}
