package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// VentaRepository acceso de solo lectura a la venta más la reversión de sus
// efectos aguas abajo al anular (inventario, libros): una única llamada
// almacenada idempotente por ID de venta.
type VentaRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Venta, error)

	// RevertirEfectos ejecuta la reversión aguas abajo de la venta. Idempotente
	// en la base por ID; se invoca solo dentro de la transacción de anulación.
	RevertirEfectos(ctx context.Context, ventaID string) error
}
