package entity

// Roles que llegan en el token del colaborador de autenticación.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero" // aprueba traslados desde el stock central
	RoleEncargado = "encargado" // responsable de un área (cocina, bar)
)
