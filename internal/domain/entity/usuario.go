package entity

import "time"

// Roles válidos para Usuario. Solo un admin puede invalidar un DTE aceptado.
const (
	RolAdmin  = "admin"
	RolCajero = "cajero"
)

// Usuario representa un operador del punto de venta.
type Usuario struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Nombre       string
	Rol          string // admin, cajero
	Activo       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
