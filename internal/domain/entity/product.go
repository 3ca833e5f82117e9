package entity

import "github.com/shopspring/decimal"

// Product vista de solo lectura del catálogo. IsFractional indica si tienen sentido
// cantidades menores a una unidad (kg, litros).
type Product struct {
	ID             string
	OrganizationID string
	Name           string
	UnitMeasure    string
	IsFractional   bool
	Cost           decimal.Decimal // costo promedio ponderado
}
