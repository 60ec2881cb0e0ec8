package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// UsuarioRepository persistencia de usuarios (solo lo que necesita el login).
type UsuarioRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.Usuario, error)
}
