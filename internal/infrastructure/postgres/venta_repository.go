package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.VentaRepository = (*VentaRepo)(nil)

// VentaRepo acceso de solo lectura a ventas más la reversión almacenada.
type VentaRepo struct {
	q Querier
}

// NewVentaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVentaRepository(q Querier) *VentaRepo {
	return &VentaRepo{q: q}
}

// GetByID obtiene la venta con sus líneas. Devuelve nil si no existe.
func (r *VentaRepo) GetByID(ctx context.Context, id string) (*entity.Venta, error) {
	query := `
		SELECT id, fecha, cliente_nombre, COALESCE(cliente_documento, ''),
		       COALESCE(cliente_correo, ''), total_gravado, total_iva, total_pagar,
		       condicion_pago
		FROM ventas WHERE id = $1`
	var v entity.Venta
	err := r.q.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.Fecha, &v.ClienteNombre, &v.ClienteDocumento,
		&v.ClienteCorreo, &v.TotalGravado, &v.TotalIva, &v.TotalPagar,
		&v.CondicionPago,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get venta: %w", err)
	}

	itemsQuery := `
		SELECT descripcion, cantidad, precio_unitario, iva_item, subtotal
		FROM venta_items WHERE venta_id = $1 ORDER BY linea`
	rows, err := r.q.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get venta items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.VentaItem
		if err := rows.Scan(&it.Descripcion, &it.Cantidad, &it.PrecioUnitario, &it.IvaItem, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan venta item: %w", err)
		}
		v.Items = append(v.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar venta items: %w", err)
	}
	return &v, nil
}

// RevertirEfectos ejecuta la reversión aguas abajo de la venta (inventario y
// libros) mediante la función almacenada, idempotente por ID de venta.
func (r *VentaRepo) RevertirEfectos(ctx context.Context, ventaID string) error {
	if _, err := r.q.Exec(ctx, `SELECT revertir_venta($1)`, ventaID); err != nil {
		return fmt.Errorf("revertir efectos de venta %s: %w", ventaID, err)
	}
	return nil
}
