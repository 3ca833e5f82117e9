package entity

// Area ubicación con inventario propio dentro de la organización (cocina, bar, almacén).
type Area struct {
	ID             string
	OrganizationID string
	Name           string
	Kind           string // kitchen, bar, warehouse
}
