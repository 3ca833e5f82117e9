package entity

// Organization organización dueña del grafo de inventario (solo lectura aquí).
type Organization struct {
	ID   string
	Name string
}
